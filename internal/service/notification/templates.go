package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"rupiah": Rupiah,
}

var reminderTemplate = template.Must(template.New("reminder").Funcs(funcs).Parse(
	`Halo {{.PatientName}},
Ini pengingat jadwal Anda di {{.ClinicName}} bersama {{.DoctorName}} pada {{.Date}} pukul {{.Time}}.
Mohon datang 15 menit lebih awal. Terima kasih.`))

var receiptTemplate = template.Must(template.New("receipt").Funcs(funcs).Parse(
	`Halo {{.PatientName}},

Terima kasih, pembayaran Anda di {{.ClinicName}} telah kami terima.

Tanggal kunjungan : {{.Date}} {{.Time}}
Dokter            : {{.DoctorName}}
Tindakan          : {{.TreatmentSummary}}
Metode            : {{.Method}}
Total             : {{rupiah .Amount}}

No. transaksi: {{.TransactionID}}`))

type ReminderData struct {
	ClinicName  string
	PatientName string
	DoctorName  string
	Date        string
	Time        string
}

type ReceiptData struct {
	ClinicName       string
	PatientName      string
	DoctorName       string
	Date             string
	Time             string
	TreatmentSummary string
	Method           string
	Amount           int64
	TransactionID    string
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// Rupiah formats an amount as "Rp 150.000".
func Rupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	return sign + "Rp " + strings.Join(groups, ".")
}
