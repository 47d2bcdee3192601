package we

type ActionType string

func (t ActionType) String() string {
	return string(t)
}

type Action any

// RemoteAction carries an action that arrived over the wire and has not been decoded yet.
type RemoteAction struct {
	ActionType ActionType `json:"type"`
	Payload    Data       `json:"payload"`
}

func ActionTypeOf(action Action) ActionType {
	switch a := action.(type) {
	case RemoteAction:
		return a.ActionType
	case *RemoteAction:
		if a == nil {
			return ""
		}
		return a.ActionType
	default:
		return ActionType(NameOf(action))
	}
}
