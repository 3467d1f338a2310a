package models

// NotificationRecord is an envelope delivered to the viewer's inbox.
type NotificationRecord struct {
	Envelope
	Read bool `json:"read"`
}

// NotificationFilter narrows an inbox listing. Zero value matches everything.
type NotificationFilter struct {
	Read *bool
	Type string
}
