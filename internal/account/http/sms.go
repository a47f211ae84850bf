package http

import (
	"context"
	"net/http"

	"github.com/loopline/accountd/internal/account/notify"
	"github.com/loopline/accountd/pkg/slogx"
)

type SMSHandler struct {
	Sender notify.SMSSender
}

type sendSMSRequest struct {
	To   string `json:"to" validate:"required,e164ish"`
	Body string `json:"body" validate:"required,max=1600"`
}

// HandleSend accepts the message and hands it to the gateway asynchronously.
func (h *SMSHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if _, ok := userFromContext(ctx); !ok {
		writeUnauthorized(w)
		return
	}

	var req sendSMSRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	msg := notify.SMS{To: req.To, Body: req.Body}
	go func() {
		if err := h.Sender.SendSMS(context.WithoutCancel(ctx), msg); err != nil {
			log.Warn("sms dispatch failed", "to", msg.To, "err", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

// HandleDeliveryReceipt is the gateway's status callback. Receipts are
// logged; the gateway only needs an acknowledgement.
func (h *SMSHandler) HandleDeliveryReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var receipt notify.DeliveryReceipt
	if !decodeAndValidate(w, r, &receipt) {
		return
	}

	log.Info("sms delivery receipt",
		"message_id", receipt.MessageID,
		"to", receipt.To,
		"status", receipt.Status,
		"timestamp", receipt.Timestamp,
	)

	w.WriteHeader(http.StatusNoContent)
}
