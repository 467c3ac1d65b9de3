package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-sla-service/internal/api/dto"
	"github.com/spec-kit/ticket-sla-service/internal/service"
)

type serviceOpener func(ctx context.Context) (*service.TicketService, func(), error)

const (
	breachAny        = "any"
	breachResponse   = "response"
	breachResolution = "resolution"
)

func newRootCmd(open serviceOpener) *cobra.Command {
	var asJSON bool

	root := &cobra.Command{
		Use:           "slactl",
		Short:         "Inspect tickets and SLA breaches",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")

	withService := func(cmd *cobra.Command, fn func(*service.TicketService) (any, error)) error {
		svc, closeFn, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		out, err := fn(svc)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), out, asJSON)
	}

	kpiCmd := &cobra.Command{
		Use:   "kpi",
		Short: "Print fleet KPIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *service.TicketService) (any, error) {
				kpi, err := svc.KPI(cmd.Context())
				if err != nil {
					return nil, err
				}
				return dto.NewKPIResponse(kpi), nil
			})
		},
	}

	var kind string
	breachesCmd := &cobra.Command{
		Use:   "breaches",
		Short: "List tickets currently breaching an SLA, most urgent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch kind {
			case breachAny, breachResponse, breachResolution:
			default:
				return fmt.Errorf("invalid --kind %q (want any, response or resolution)", kind)
			}
			return withService(cmd, func(svc *service.TicketService) (any, error) {
				snap, err := svc.Snapshot(cmd.Context())
				if err != nil {
					return nil, err
				}
				out := make([]breachRow, 0)
				for _, v := range snap.Tickets {
					if matchesBreach(v, kind) {
						out = append(out, newBreachRow(v))
					}
				}
				return out, nil
			})
		},
	}
	breachesCmd.Flags().StringVar(&kind, "kind", breachAny, "breach kind: any, response or resolution")

	showCmd := &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show full ticket detail with SLA status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *service.TicketService) (any, error) {
				view, err := svc.GetTicket(cmd.Context(), args[0])
				if err != nil {
					return nil, err
				}
				return dto.NewEvaluatedTicketResponse(view.Ticket, view.SLA), nil
			})
		},
	}

	root.AddCommand(kpiCmd, breachesCmd, showCmd)
	return root
}

type breachRow struct {
	TicketID           string `json:"ticket_id" yaml:"ticket_id"`
	Priority           string `json:"priority" yaml:"priority"`
	Status             string `json:"status" yaml:"status"`
	Assignee           string `json:"assignee" yaml:"assignee"`
	Subject            string `json:"subject" yaml:"subject"`
	ResponseBreached   bool   `json:"response_breached" yaml:"response_breached"`
	ResolutionBreached bool   `json:"resolution_breached" yaml:"resolution_breached"`
}

func newBreachRow(v service.TicketView) breachRow {
	return breachRow{
		TicketID:           v.Ticket.TicketID,
		Priority:           string(v.Ticket.Priority),
		Status:             string(v.Ticket.Status),
		Assignee:           v.Ticket.Assignee,
		Subject:            v.Ticket.Subject,
		ResponseBreached:   v.SLA.ResponseBreached,
		ResolutionBreached: v.SLA.ResolutionBreached,
	}
}

func matchesBreach(v service.TicketView, kind string) bool {
	if v.Ticket.Status.Terminal() {
		return false
	}
	switch kind {
	case breachResponse:
		return v.SLA.ResponseBreached
	case breachResolution:
		return v.SLA.ResolutionBreached
	default:
		return v.SLA.ResponseBreached || v.SLA.ResolutionBreached
	}
}

func render(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
