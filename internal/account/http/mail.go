package http

import (
	"context"
	"net/http"

	"github.com/loopline/accountd/internal/account/notify"
	"github.com/loopline/accountd/pkg/slogx"
)

type MailHandler struct {
	Mailer notify.Mailer
}

type sendMailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required"`
}

// HandleSend accepts the mail and dispatches it asynchronously.
func (h *MailHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if _, ok := userFromContext(ctx); !ok {
		writeUnauthorized(w)
		return
	}

	var req sendMailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	m := notify.Mail{To: req.To, Subject: req.Subject, Body: req.Body}
	go func() {
		if err := h.Mailer.SendMail(context.WithoutCancel(ctx), m); err != nil {
			log.Warn("mail dispatch failed", "to", m.To, "err", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}
