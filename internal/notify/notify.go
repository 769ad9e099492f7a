package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okaralov/planner/internal/storage"
	log "github.com/sirupsen/logrus"
)

const timeLayout = "2006-01-02 15:04"

type Notification struct {
	EventID     int64     `json:"eventId"`
	ChatID      int64     `json:"chatId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	EventTime   time.Time `json:"eventTime"`
	GroupID     string    `json:"groupId,omitempty"`
	GroupName   string    `json:"groupName,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type GroupGetter interface {
	GetGroup(ctx context.Context, id string) (storage.Group, error)
}

type Resolver struct {
	groups GroupGetter
}

func NewResolver(groups GroupGetter) *Resolver {
	return &Resolver{groups: groups}
}

// Resolve builds the notification for an event. The target chat is always
// the event owner's; a group event is annotated with the group name. An
// event pointing to a removed group degrades to a plain user notification.
func (r *Resolver) Resolve(ctx context.Context, e storage.Event) Notification {
	n := Notification{
		EventID:     e.ID,
		ChatID:      e.OwnerID,
		Title:       e.Title,
		Description: e.Description,
		EventTime:   e.EventTime,
		GroupID:     e.GroupID,
	}
	if e.GroupID == "" {
		return n
	}
	group, err := r.groups.GetGroup(ctx, e.GroupID)
	if err != nil {
		log.Debugf("group %q is not resolvable for event %d: %v", e.GroupID, e.ID, err)
		n.GroupID = ""
		return n
	}
	n.GroupName = group.Name
	return n
}

func Format(n Notification) string {
	var b strings.Builder
	b.WriteString("🔔 Нагадування!\n\n")
	fmt.Fprintf(&b, "Подія: %s\n", n.Title)
	if n.Description != "" {
		fmt.Fprintf(&b, "Опис: %s\n", n.Description)
	}
	fmt.Fprintf(&b, "Час: %s\n", n.EventTime.Format(timeLayout))
	if n.GroupID != "" {
		name := n.GroupName
		if name == "" {
			name = n.GroupID
		}
		fmt.Fprintf(&b, "Група: %s", name)
	}
	return b.String()
}
