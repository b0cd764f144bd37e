package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

type messageKind string

const (
	kindConfirmed messageKind = "confirmed"
	kindRejected  messageKind = "rejected"
	kindDeleted   messageKind = "deleted"
)

type copyText struct {
	Subject  string
	Greeting string
	Intro    string
	Closing  string
}

type labels struct {
	Program   string
	Date      string
	PartySize string
	Amount    string
	Reference string
}

var catalog = map[string]map[messageKind]copyText{
	"en": {
		kindConfirmed: {
			Subject:  "Your booking is confirmed: %s",
			Greeting: "Dear %s,",
			Intro:    "We are happy to confirm your booking. We look forward to welcoming you.",
			Closing:  "If you need to change anything, simply reply to this email.",
		},
		kindRejected: {
			Subject:  "We could not accept your booking: %s",
			Greeting: "Dear %s,",
			Intro:    "Unfortunately we are unable to accept your booking for the date below. Any card authorization has been released.",
			Closing:  "We would be glad to help you find another date.",
		},
		kindDeleted: {
			Subject:  "Your booking has been cancelled: %s",
			Greeting: "Dear %s,",
			Intro:    "Your booking below has been cancelled and removed from our schedule.",
			Closing:  "Please contact us if you believe this was a mistake.",
		},
	},
	"ja": {
		kindConfirmed: {
			Subject:  "ご予約が確定しました：%s",
			Greeting: "%s 様",
			Intro:    "ご予約を承りました。当日お会いできることを楽しみにしております。",
			Closing:  "ご変更がございましたら、このメールにご返信ください。",
		},
		kindRejected: {
			Subject:  "ご予約をお受けできませんでした：%s",
			Greeting: "%s 様",
			Intro:    "誠に恐れ入りますが、下記日程でのご予約をお受けすることができませんでした。カードの与信枠は解放されています。",
			Closing:  "別の日程でのご案内をいたしますので、お気軽にご連絡ください。",
		},
		kindDeleted: {
			Subject:  "ご予約がキャンセルされました：%s",
			Greeting: "%s 様",
			Intro:    "下記のご予約はキャンセルされ、予定から削除されました。",
			Closing:  "お心当たりのない場合はご連絡ください。",
		},
	},
}

var fieldLabels = map[string]labels{
	"en": {Program: "Program", Date: "Date", PartySize: "Guests", Amount: "Amount", Reference: "Reference"},
	"ja": {Program: "プログラム", Date: "日時", PartySize: "人数", Amount: "金額", Reference: "予約番号"},
}

var dateLayouts = map[string]string{
	"en": "Monday, January 2, 2006 15:04",
	"ja": "2006年1月2日 15:04",
}

// resolveLang returns lang when a catalog exists for it, else fallback, else "en".
func resolveLang(lang, fallback string) string {
	lang = strings.ToLower(lang)
	if _, ok := catalog[lang]; ok {
		return lang
	}
	if _, ok := catalog[fallback]; ok {
		return fallback
	}
	return "en"
}

type detailRow struct {
	Label string
	Value string
}

type emailView struct {
	Lang     string
	Greeting string
	Intro    string
	Details  []detailRow
	Closing  string
	Footer   string
}

var bookingTemplate = template.Must(template.New("booking").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<body style="font-family:sans-serif;color:#222">
<p>{{.Greeting}}</p>
<p>{{.Intro}}</p>
<table cellpadding="6" style="border-collapse:collapse">
{{range .Details}}<tr><th align="left">{{.Label}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
<p>{{.Closing}}</p>
{{if .Footer}}<p style="color:#888;font-size:12px">{{.Footer}}</p>{{end}}
</body>
</html>`))

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="font-family:sans-serif;color:#222">
<p>{{len .Rows}} pending booking(s) hold a card authorization older than {{.Age}}. Confirm or reject them before the authorization lapses.</p>
<table cellpadding="6" border="1" style="border-collapse:collapse">
<tr><th>Booking</th><th>Guest</th><th>Date</th><th>Payment intent</th><th>Held since</th></tr>
{{range .Rows}}<tr><td>{{.ID}}</td><td>{{.Guest}}</td><td>{{.Date}}</td><td>{{.PaymentIntent}}</td><td>{{.HeldSince}}</td></tr>
{{end}}</table>
</body>
</html>`))

type digestRow struct {
	ID            string
	Guest         string
	Date          string
	PaymentIntent string
	HeldSince     string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func plainText(v emailView) string {
	var b strings.Builder
	fmt.Fprintln(&b, v.Greeting)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, v.Intro)
	fmt.Fprintln(&b)
	for _, d := range v.Details {
		fmt.Fprintf(&b, "%s: %s\n", d.Label, d.Value)
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, v.Closing)
	return b.String()
}
