package mail

import (
	"fmt"
	"strings"
	"time"

	"rentory/pkg/model"
)

const (
	icsTimeLayout     = "20060102T150405Z"
	maxDescriptionLen = 200
)

// ICSBuilder renders calendar payloads for booking invites and
// cancellations. Both share the booking's UID so calendar clients
// match a cancellation to the original event.
type ICSBuilder struct {
	Domain string // UID domain suffix, e.g. rentory.example.com
	ProdID string
}

func NewICSBuilder(domain string) *ICSBuilder {
	return &ICSBuilder{
		Domain: domain,
		ProdID: "-//rentory//booking//EN",
	}
}

// BuildInvite renders a METHOD:REQUEST event covering the booking's
// date range, with the equipment list in the description and a 15
// minute reminder alarm.
func (b *ICSBuilder) BuildInvite(detail *model.BookingDetail, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + b.ProdID,
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:" + b.uid(detail),
		"SEQUENCE:0",
		"DTSTAMP:" + now.UTC().Format(icsTimeLayout),
		"DTSTART:" + detail.StartDate.UTC().Format(icsTimeLayout),
		"DTEND:" + detail.EndDate.UTC().Format(icsTimeLayout),
		"SUMMARY:" + escapeICS(b.summary(detail)),
		"DESCRIPTION:" + escapeICS(b.description(detail)),
		"STATUS:CONFIRMED",
		"BEGIN:VALARM",
		"TRIGGER:-PT15M",
		"ACTION:DISPLAY",
		"DESCRIPTION:Reminder",
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

// BuildCancellation renders a METHOD:CANCEL event with the same UID as
// the invite and a bumped sequence number.
func (b *ICSBuilder) BuildCancellation(detail *model.BookingDetail, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + b.ProdID,
		"METHOD:CANCEL",
		"BEGIN:VEVENT",
		"UID:" + b.uid(detail),
		"SEQUENCE:1",
		"DTSTAMP:" + now.UTC().Format(icsTimeLayout),
		"DTSTART:" + detail.StartDate.UTC().Format(icsTimeLayout),
		"DTEND:" + detail.EndDate.UTC().Format(icsTimeLayout),
		"SUMMARY:" + escapeICS("Storniert: "+b.summary(detail)),
		"STATUS:CANCELLED",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func (b *ICSBuilder) uid(detail *model.BookingDetail) string {
	return detail.ID.Hex() + "@" + b.Domain
}

func (b *ICSBuilder) summary(detail *model.BookingDetail) string {
	if detail.Customer != nil && detail.Customer.Name != "" {
		return "Buchung: " + detail.Customer.Name
	}
	return "Buchung"
}

func (b *ICSBuilder) description(detail *model.BookingDetail) string {
	var parts []string
	for _, line := range detail.Items {
		name := "Unbekannter Artikel"
		if line.Item != nil {
			name = line.Item.Name
		}
		parts = append(parts, fmt.Sprintf("%s (%dx)", name, line.Quantity))
	}
	description := strings.Join(parts, ", ")
	if detail.Notes != "" {
		if description != "" {
			description += " | "
		}
		description += detail.Notes
	}
	if runes := []rune(description); len(runes) > maxDescriptionLen {
		description = string(runes[:maxDescriptionLen-3]) + "..."
	}
	return description
}

// escapeICS escapes text per RFC 5545 section 3.3.11.
func escapeICS(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
		"\r", "",
	)
	return replacer.Replace(s)
}
