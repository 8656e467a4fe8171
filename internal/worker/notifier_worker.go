package worker

import (
	"github.com/spec-kit/p2p-exchange-bot/internal/service"
)

// StartNotifierWorker registers counterparty notification handlers.
func StartNotifierWorker(notifierService *service.NotifierService) {
	if notifierService == nil {
		return
	}
	notifierService.RegisterHandlers()
}
