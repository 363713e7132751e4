package commands

import (
	"context"
	"fmt"

	"github.com/puntualdev/puntual/internal/gateway"
)

// MarkCmd fires an immediate attendance mark.
type MarkCmd struct {
	Action string `arg:"" enum:"entrada,salida" help:"Which mark to fire (entrada or salida)"`
	clientFlags
}

func (m *MarkCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := m.connect(globals)
	if err != nil {
		return err
	}

	action, err := gateway.ParseMarkAction(m.Action)
	if err != nil {
		return err
	}

	if err := client.MarkNow(ctx, action); err != nil {
		return friendlyError(err)
	}

	fmt.Printf("Mark %q sent.\n", action)
	return nil
}

// TimezonesCmd lists the timezone labels the gateway accepts.
type TimezonesCmd struct {
	clientFlags
}

func (t *TimezonesCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := t.connect(globals)
	if err != nil {
		return err
	}

	zones, err := client.Timezones(ctx)
	if err != nil {
		return friendlyError(err)
	}

	for _, zone := range zones {
		fmt.Println(zone)
	}
	return nil
}
