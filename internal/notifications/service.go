package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/0xPuncker/jobcount-watcher/pkg/utils"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type JobStatus string

const (
	StatusStarted JobStatus = "started"
	StatusSuccess JobStatus = "success"
	StatusFailed  JobStatus = "failed"
)

// JobRun is the outcome of one scheduled processing run.
type JobRun struct {
	Job      string
	Status   JobStatus
	Duration time.Duration
	Details  string
}

// Service turns job count events into Slack messages for one environment pair.
type Service struct {
	slack        *SlackClient
	environments string
	now          func() time.Time
}

func NewService(slack *SlackClient, envA, envB types.EnvironmentID) *Service {
	return &Service{
		slack:        slack,
		environments: fmt.Sprintf("%s + %s", envA, envB),
		now:          time.Now,
	}
}

// NotifyLicenseExceeded alerts that a summed total went over the license limit.
// Nothing was persisted for that run.
func (s *Service) NotifyLicenseExceeded(ctx context.Context, total, limit int64) error {
	now := s.now()
	return s.slack.Post(ctx, Message{
		Text: "🚨 " + title("license limit exceeded"),
		Attachments: []Attachment{{
			Color: "danger",
			Text:  "Processing stopped before the total was saved.",
			Fields: []Field{
				{Title: "Environments", Value: s.environments, Short: false},
				{Title: "Total Jobs", Value: utils.FormatCount(total), Short: true},
				{Title: "License Limit", Value: utils.FormatCount(limit), Short: true},
				{Title: "Over By", Value: utils.FormatCount(total - limit), Short: true},
			},
			Footer: "Checked: " + now.Format(time.RFC1123),
			Ts:     now.Unix(),
		}},
	})
}

func (s *Service) NotifyJobRun(ctx context.Context, run JobRun) error {
	color, icon := statusStyle(run.Status)

	fields := []Field{
		{Title: "Job", Value: run.Job, Short: true},
		{Title: "Status", Value: title(string(run.Status)), Short: true},
		{Title: "Environments", Value: s.environments, Short: true},
	}
	if run.Duration > 0 {
		fields = append(fields, Field{Title: "Duration", Value: utils.FormatDuration(run.Duration), Short: true})
	}
	if run.Details != "" {
		fields = append(fields, Field{Title: "Details", Value: run.Details})
	}

	return s.slack.Post(ctx, Message{
		Text: fmt.Sprintf("%s Job Count Run %s", icon, title(string(run.Status))),
		Attachments: []Attachment{{
			Color:  color,
			Fields: fields,
			Ts:     s.now().Unix(),
		}},
	})
}

func statusStyle(status JobStatus) (color, icon string) {
	switch status {
	case StatusSuccess:
		return "good", "✅"
	case StatusFailed:
		return "danger", "❌"
	case StatusStarted:
		return "warning", "🚀"
	default:
		return "#808080", "ℹ️"
	}
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}
