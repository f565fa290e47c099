package feed

import "time"

// Style is the visual treatment of an ephemeral alert
type Style string

const (
	StyleInfo    Style = "info"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
)

const (
	normalAutoDismiss = 5 * time.Second
	highAutoDismiss   = 10 * time.Second
)

// Presentation describes how an incoming notification should be surfaced.
// AutoDismiss of zero means the alert stays until dismissed by hand.
type Presentation struct {
	Style       Style
	AutoDismiss time.Duration
	ActionURL   string
	ActionLabel string
}

// SelectPresentation maps a priority to its alert treatment
func SelectPresentation(p Priority) Presentation {
	switch p {
	case PriorityUrgent:
		return Presentation{Style: StyleError}
	case PriorityHigh:
		return Presentation{Style: StyleWarning, AutoDismiss: highAutoDismiss}
	default:
		return Presentation{Style: StyleInfo, AutoDismiss: normalAutoDismiss}
	}
}

// PresentationFor applies the priority rule and carries the notification's
// action control when it has one
func PresentationFor(n Notification) Presentation {
	p := SelectPresentation(n.Priority)
	if n.ActionURL != "" {
		p.ActionURL = n.ActionURL
		p.ActionLabel = n.ActionLabel
		if p.ActionLabel == "" {
			p.ActionLabel = "View"
		}
	}
	return p
}
