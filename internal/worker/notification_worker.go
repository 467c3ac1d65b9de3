package worker

import (
	"github.com/spec-kit/ticket-sla-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
// The dispatcher is synchronous, so handlers run on the publishing goroutine.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
