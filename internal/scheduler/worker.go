package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"

	"funilzap_backend/internal/config"
	"funilzap_backend/internal/email"
	reportsservice "funilzap_backend/internal/reports/service"
	"funilzap_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	reports    *reportsservice.Service
	sender     email.Sender
	recipients []string
	log        *logger.Logger
}

func NewWorker(cfg *config.Config, reports *reportsservice.Service, sender email.Sender, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			cfg.AsynqQueue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		reports:    reports,
		sender:     sender,
		recipients: cfg.DigestEmails,
		log:        log,
	}

	mux.HandleFunc(TaskFunnelDigest, w.handleFunnelDigest)

	return w, nil
}

// Run blocks processing tasks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleFunnelDigest(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFunnelDigestPayload(task)
	if err != nil {
		return err
	}

	recipients := payload.Recipients
	if len(recipients) == 0 {
		recipients = w.recipients
	}
	if len(recipients) == 0 {
		w.log.Info("funnel digest skipped, no recipients configured")
		return nil
	}

	overview, err := w.reports.FunnelOverview(ctx)
	if err != nil {
		return fmt.Errorf("funnel digest overview: %w", err)
	}

	body := renderDigest(overview)
	for _, to := range recipients {
		if err := w.sender.SendFunnelDigest(ctx, to, body); err != nil {
			w.log.Error("funnel digest email failed", "to", to, "error", err)
		}
	}
	return nil
}

func renderDigest(o reportsservice.Overview) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="pt-BR"><body style="font-family: Arial, sans-serif; color: #1f2937;">`)
	b.WriteString("<h2>Resumo diário do funil</h2>")
	fmt.Fprintf(&b, "<p>Total de leads: <strong>%d</strong><br>", o.Total)
	fmt.Fprintf(&b, "Leads quentes: <strong>%d</strong><br>", o.Hot)
	fmt.Fprintf(&b, "Atendidos hoje: <strong>%d</strong><br>", o.AttendedToday)
	fmt.Fprintf(&b, "Sem responsável: <strong>%d</strong></p>", o.Unassigned)
	b.WriteString("<table cellpadding=\"6\" style=\"border-collapse: collapse;\"><tr><th align=\"left\">Etapa</th><th align=\"right\">Leads</th></tr>")
	for _, stage := range o.Stages {
		fmt.Fprintf(&b, "<tr><td>%s</td><td align=\"right\">%d</td></tr>", html.EscapeString(stage.Label), stage.Count)
	}
	b.WriteString("</table></body></html>")
	return b.String()
}
