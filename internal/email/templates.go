package email

import (
	"bytes"
	"fmt"
	"html/template"
)

type customerAssignedData struct {
	ConsultantName string
	CustomerName   string
}

type taskCompletedData struct {
	TaskTitle string
}

type poolReminderData struct {
	PendingCount int
}

var templates = template.Must(template.New("email").Parse(`
{{define "customer_assigned"}}
<p>Merhaba {{.ConsultantName}},</p>
<p><strong>{{.CustomerName}}</strong> adlı müşteri size atandı. Lütfen en kısa sürede iletişime geçin.</p>
{{end}}

{{define "task_completed"}}
<p>Oluşturduğunuz görev tamamlandı:</p>
<p><strong>{{.TaskTitle}}</strong></p>
{{end}}

{{define "pool_reminder"}}
<p>Görev havuzunda uzun süredir bekleyen <strong>{{.PendingCount}}</strong> görev var.</p>
<p>Lütfen dağılımı kontrol edin.</p>
{{end}}
`))

func renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
