package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hbs/src/config"
	"hbs/src/lib"
	"hbs/src/models"
)

var ErrNoRecipient = errors.New("no recipient address")

// Dispatcher renders transactional booking emails and hands them to a Mailer.
type Dispatcher struct {
	mailer   Mailer
	from     string
	fromName string
	lang     string
	timeout  time.Duration
}

func NewDispatcher(m Mailer) *Dispatcher {
	return &Dispatcher{
		mailer:   m,
		from:     config.MailFrom(),
		fromName: config.MailFromName(),
		lang:     config.DefaultLanguage(),
		timeout:  config.RemoteCallTimeout(),
	}
}

func (d *Dispatcher) BookingConfirmed(ctx context.Context, booking *models.Booking, program *models.Program) error {
	return d.sendBooking(ctx, kindConfirmed, booking, program)
}

func (d *Dispatcher) BookingRejected(ctx context.Context, booking *models.Booking, program *models.Program) error {
	return d.sendBooking(ctx, kindRejected, booking, program)
}

func (d *Dispatcher) BookingDeleted(ctx context.Context, booking *models.Booking, program *models.Program) error {
	return d.sendBooking(ctx, kindDeleted, booking, program)
}

// AuthorizationDigest lists pending bookings whose card hold is about to lapse.
func (d *Dispatcher) AuthorizationDigest(ctx context.Context, to []string, bookings []models.Booking, age time.Duration) error {
	if len(to) == 0 {
		return ErrNoRecipient
	}
	rows := make([]digestRow, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, digestRow{
			ID:            b.ID.String(),
			Guest:         fmt.Sprintf("%s <%s>", b.GuestName, b.GuestEmail),
			Date:          b.BookingDate.Format(time.RFC3339),
			PaymentIntent: b.PaymentIntent(),
			HeldSince:     b.UpdatedAt.Format(time.RFC3339),
		})
	}
	html, err := render(digestTemplate, map[string]any{"Rows": rows, "Age": age.String()})
	if err != nil {
		return err
	}
	return d.send(ctx, &lib.SendMailInput{
		From:     d.from,
		FromName: d.fromName,
		To:       to,
		Subject:  fmt.Sprintf("%d card authorization(s) awaiting a decision", len(rows)),
		Body:     html,
		Html:     true,
	})
}

func (d *Dispatcher) sendBooking(ctx context.Context, kind messageKind, booking *models.Booking, program *models.Program) error {
	if strings.TrimSpace(booking.GuestEmail) == "" {
		return ErrNoRecipient
	}
	view, subject := d.bookingView(kind, booking, program)
	html, err := render(bookingTemplate, view)
	if err != nil {
		return err
	}
	return d.send(ctx, &lib.SendMailInput{
		From:     d.from,
		FromName: d.fromName,
		To:       []string{booking.GuestEmail},
		Subject:  subject,
		Body:     html,
		Text:     plainText(view),
		Html:     true,
	})
}

func (d *Dispatcher) bookingView(kind messageKind, booking *models.Booking, program *models.Program) (emailView, string) {
	lang := resolveLang(booking.Language, d.lang)
	text := catalog[lang][kind]
	label := fieldLabels[lang]

	title := ""
	if program != nil {
		title = program.Title(booking.Language, d.lang)
	}
	details := []detailRow{
		{Label: label.Program, Value: title},
		{Label: label.Date, Value: booking.BookingDate.Format(dateLayouts[lang])},
		{Label: label.PartySize, Value: fmt.Sprint(booking.PartySize)},
	}
	if amount := bookingAmount(booking, program); amount != "" {
		details = append(details, detailRow{Label: label.Amount, Value: amount})
	}
	details = append(details, detailRow{Label: label.Reference, Value: shortReference(booking)})

	view := emailView{
		Lang:     lang,
		Greeting: fmt.Sprintf(text.Greeting, booking.GuestName),
		Intro:    text.Intro,
		Details:  details,
		Closing:  text.Closing,
		Footer:   config.AppHost(),
	}
	return view, fmt.Sprintf(text.Subject, title)
}

func (d *Dispatcher) send(ctx context.Context, input *lib.SendMailInput) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.mailer.Send(ctx, input)
}

func bookingAmount(booking *models.Booking, program *models.Program) string {
	if booking.HasPayment() && program != nil {
		return formatAmount(program.Price, program.Currency)
	}
	return ""
}

func formatAmount(amount float64, currency string) string {
	currency = strings.ToUpper(currency)
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%s %d", currency, int64(amount))
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func shortReference(booking *models.Booking) string {
	return strings.ToUpper(strings.ReplaceAll(booking.ID.String(), "-", "")[:8])
}
