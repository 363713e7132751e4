package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/puntualdev/puntual/internal/rule"
	"github.com/puntualdev/puntual/internal/timeutil"
)

// RuleCmd groups the automation rule subcommands.
type RuleCmd struct {
	Show RuleShowCmd `cmd:"" help:"Show the current automation rule"`
	Edit RuleEditCmd `cmd:"" help:"Edit the automation rule and save it"`
}

// RuleShowCmd prints the current rule.
type RuleShowCmd struct {
	clientFlags
}

func (c *RuleShowCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := c.connect(globals)
	if err != nil {
		return err
	}

	r, err := client.Rule(ctx)
	if err != nil {
		return friendlyError(err)
	}

	printRule(r)
	return nil
}

func printRule(r rule.Rule) {
	fmt.Printf("Active:         %s\n", yesNo(r.Active))
	fmt.Printf("Timezone:       %s\n", valueOrDash(r.Timezone))
	if r.RandomWindowMinutes != nil {
		fmt.Printf("Random window:  %d min\n", *r.RandomWindowMinutes)
	}
	if r.PhoneNumber != nil {
		fmt.Printf("Phone:          %s\n", *r.PhoneNumber)
	}
	fmt.Printf("Entry:          %s\n", formatBlock(r.Entry))
	fmt.Printf("Exit:           %s\n", formatBlock(r.Exit))
	fmt.Printf("Geofence:       %s\n", formatLocation(r.Location))
}

func formatBlock(b rule.TimeBlock) string {
	if !b.Enabled {
		return "disabled"
	}
	out := fmt.Sprintf("%s %s", valueOrDash(b.LocalTime), timeutil.FormatDays(b.Days))
	if b.UTCTime != nil {
		out += fmt.Sprintf(" (%s UTC)", *b.UTCTime)
	}
	return out
}

func formatLocation(l rule.Location) string {
	if !l.Configured() {
		return "not configured"
	}
	out := fmt.Sprintf("%.6f, %.6f, radius %dm", *l.Latitude, *l.Longitude, *l.RadiusMeters)
	if l.Address != "" {
		out = l.Address + " (" + out + ")"
	}
	return out
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func valueOrDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// ruleFile is the YAML/JSON shape accepted by --file; any field left out
// keeps its current value.
type ruleFile struct {
	Active       *bool    `yaml:"active" json:"active"`
	Timezone     *string  `yaml:"timezone" json:"timezone"`
	Phone        *string  `yaml:"phone" json:"phone"`
	RandomWindow *int     `yaml:"randomWindow" json:"randomWindow"`
	EntryTime    *string  `yaml:"entryTime" json:"entryTime"`
	EntryDays    []string `yaml:"entryDays" json:"entryDays"`
	EntryEnabled *bool    `yaml:"entryEnabled" json:"entryEnabled"`
	ExitTime     *string  `yaml:"exitTime" json:"exitTime"`
	ExitDays     []string `yaml:"exitDays" json:"exitDays"`
	ExitEnabled  *bool    `yaml:"exitEnabled" json:"exitEnabled"`
	Address      *string  `yaml:"address" json:"address"`
	Latitude     *float64 `yaml:"latitude" json:"latitude"`
	Longitude    *float64 `yaml:"longitude" json:"longitude"`
	Radius       *int     `yaml:"radius" json:"radius"`
}

// RuleEditCmd loads the current rule, applies the requested changes, and
// writes the full rule back.
type RuleEditCmd struct {
	Active       *bool    `help:"Enable or disable automation" negatable:""`
	Timezone     *string  `help:"Timezone label (see 'puntual timezones')"`
	Phone        *string  `help:"Contact phone number"`
	RandomWindow *int     `help:"Random jitter window in minutes"`
	EntryTime    *string  `help:"Entry local time (HH:MM)"`
	EntryDays    []string `help:"Entry days (Lun..Dom or ISO names)"`
	EntryEnabled *bool    `help:"Enable or disable the entry block" negatable:""`
	ExitTime     *string  `help:"Exit local time (HH:MM)"`
	ExitDays     []string `help:"Exit days (Lun..Dom or ISO names)"`
	ExitEnabled  *bool    `help:"Enable or disable the exit block" negatable:""`
	Address      *string  `help:"Geofence address"`
	Latitude     *float64 `help:"Geofence center latitude"`
	Longitude    *float64 `help:"Geofence center longitude"`
	Radius       *int     `help:"Geofence radius in meters"`
	File         string   `help:"YAML/JSON rule file applied before flags"`
	clientFlags
}

func (c *RuleEditCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := c.connect(globals)
	if err != nil {
		return err
	}

	current, err := client.Rule(ctx)
	if err != nil {
		return friendlyError(err)
	}

	edits, err := c.collectEdits()
	if err != nil {
		return err
	}
	if err := applyEdits(&current, edits, rule.PhoneOptions{CallingCode: c.CountryCode}); err != nil {
		return err
	}

	// Local validation happens before anything is sent to the gateway.
	if err := current.Validate(); err != nil {
		return err
	}

	if err := client.SaveRule(ctx, rule.ToPersisted(current)); err != nil {
		return friendlyError(err)
	}

	fmt.Println("Rule saved.")
	printRule(current)
	return nil
}

// collectEdits merges the optional rule file with the flags; flags win.
func (c *RuleEditCmd) collectEdits() (ruleFile, error) {
	var edits ruleFile
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return edits, fmt.Errorf("failed to read rule file: %w", err)
		}
		if strings.HasSuffix(c.File, ".json") {
			err = json.Unmarshal(data, &edits)
		} else {
			err = yaml.Unmarshal(data, &edits)
		}
		if err != nil {
			return edits, fmt.Errorf("failed to parse rule file %s: %w", c.File, err)
		}
	}

	flagEdits := ruleFile{
		Active:       c.Active,
		Timezone:     c.Timezone,
		Phone:        c.Phone,
		RandomWindow: c.RandomWindow,
		EntryTime:    c.EntryTime,
		EntryDays:    c.EntryDays,
		EntryEnabled: c.EntryEnabled,
		ExitTime:     c.ExitTime,
		ExitDays:     c.ExitDays,
		ExitEnabled:  c.ExitEnabled,
		Address:      c.Address,
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		Radius:       c.Radius,
	}
	mergeEdits(&edits, flagEdits)
	return edits, nil
}

func mergeEdits(base *ruleFile, override ruleFile) {
	if override.Active != nil {
		base.Active = override.Active
	}
	if override.Timezone != nil {
		base.Timezone = override.Timezone
	}
	if override.Phone != nil {
		base.Phone = override.Phone
	}
	if override.RandomWindow != nil {
		base.RandomWindow = override.RandomWindow
	}
	if override.EntryTime != nil {
		base.EntryTime = override.EntryTime
	}
	if len(override.EntryDays) > 0 {
		base.EntryDays = override.EntryDays
	}
	if override.EntryEnabled != nil {
		base.EntryEnabled = override.EntryEnabled
	}
	if override.ExitTime != nil {
		base.ExitTime = override.ExitTime
	}
	if len(override.ExitDays) > 0 {
		base.ExitDays = override.ExitDays
	}
	if override.ExitEnabled != nil {
		base.ExitEnabled = override.ExitEnabled
	}
	if override.Address != nil {
		base.Address = override.Address
	}
	if override.Latitude != nil {
		base.Latitude = override.Latitude
	}
	if override.Longitude != nil {
		base.Longitude = override.Longitude
	}
	if override.Radius != nil {
		base.Radius = override.Radius
	}
}

// applyEdits mutates the rule draft with the requested changes.
func applyEdits(r *rule.Rule, edits ruleFile, phone rule.PhoneOptions) error {
	if edits.Active != nil {
		r.Active = *edits.Active
	}
	if edits.Timezone != nil {
		r.Timezone = *edits.Timezone
	}
	if edits.Phone != nil {
		r.PhoneNumber = rule.NormalizePhone(*edits.Phone, phone)
	}
	if edits.RandomWindow != nil {
		r.RandomWindowMinutes = edits.RandomWindow
	}
	if err := applyBlockEdits(&r.Entry, "entry", edits.EntryTime, edits.EntryDays, edits.EntryEnabled); err != nil {
		return err
	}
	if err := applyBlockEdits(&r.Exit, "exit", edits.ExitTime, edits.ExitDays, edits.ExitEnabled); err != nil {
		return err
	}
	if edits.Address != nil {
		r.Location.Address = *edits.Address
	}
	if edits.Latitude != nil {
		r.Location.Latitude = edits.Latitude
	}
	if edits.Longitude != nil {
		r.Location.Longitude = edits.Longitude
	}
	if edits.Radius != nil {
		r.Location.RadiusMeters = edits.Radius
	}
	return nil
}

func applyBlockEdits(b *rule.TimeBlock, name string, localTime *string, days []string, enabled *bool) error {
	if enabled != nil {
		b.Enabled = *enabled
	}
	if localTime != nil {
		b.LocalTime = *localTime
		// Setting a time implies the block is wanted unless said otherwise.
		if enabled == nil {
			b.Enabled = true
		}
	}
	if len(days) > 0 {
		keys, err := parseDayFlags(name, days)
		if err != nil {
			return err
		}
		b.Days = keys
	}
	return nil
}

// parseDayFlags accepts day keys ("Lun") and ISO names ("monday"),
// case-insensitively for the latter.
func parseDayFlags(name string, values []string) ([]string, error) {
	keys := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if timeutil.IsDayKey(v) {
			keys = append(keys, v)
			continue
		}
		if key, ok := timeutil.DayFromISO(v); ok {
			keys = append(keys, key)
			continue
		}
		return nil, &rule.ValidationError{Field: name + ".days", Message: fmt.Sprintf("unknown day %q (want Lun..Dom)", v)}
	}
	return timeutil.SortDays(keys), nil
}
