package notify

import (
	"context"
	"errors"
	"time"
)

var ErrPermissionDenied = errors.New("notification permission denied")

// Notification es el contenido de una notificación local/push.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Scheduler programa notificaciones para un usuario.
// Los timers pertenecen al scheduler; quien llama solo pide programar o cancelar todo.
type Scheduler interface {
	SendImmediate(ctx context.Context, userID string, n Notification) error
	ScheduleDelayed(ctx context.Context, userID string, n Notification, delay time.Duration) error
	CancelAll(ctx context.Context, userID string) error
}

// Sender entrega una notificación ya lista (push, log, etc).
type Sender interface {
	Deliver(ctx context.Context, userID string, n Notification) error
}

// PermissionStatus espeja el estado de permisos que reporta el dispositivo.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// Registration es el resultado del registro de permisos: token entregable o denegación.
type Registration struct {
	Token  string
	Status PermissionStatus
}

func (r Registration) Granted() bool {
	return r.Status == PermissionGranted
}
