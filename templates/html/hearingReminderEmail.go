// Package templates holds the HTML email bodies sent by the scheduler.
package templates

import (
	"fmt"
	"html"
	"strings"

	"github.com/civicwatch/case-api/models"
)

// RenderHearingReminderEmail generates branded HTML listing every case with a
// hearing scheduled in the next 24 hours.
func RenderHearingReminderEmail(cases []models.Case) string {
	var rows strings.Builder
	for _, c := range cases {
		court := ""
		if c.Details.CourtDetails != nil {
			court = c.Details.CourtDetails.CourtName
		}
		rows.WriteString(fmt.Sprintf(`<tr>
        <td>%s</td>
        <td>%s</td>
        <td>%s</td>
        <td>%s</td>
      </tr>`,
			html.EscapeString(c.Details.ReferenceNumber),
			html.EscapeString(c.Details.Category),
			html.EscapeString(court),
			html.EscapeString(nextHearingLabel(c)),
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Upcoming Hearings</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #0a0a0f; }
    .container { max-width: 600px; margin: 0 auto; background-color: #12121f; }
    .header { background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #e5e7eb; line-height: 1.6; font-size: 15px; }
    table { width: 100%%; border-collapse: collapse; }
    th, td { padding: 8px; text-align: left; border-bottom: 1px solid rgba(255,255,255,0.1); }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(255,255,255,0.1); }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Hearings in the next 24 hours</h1>
    </div>
    <div class="content">
      <table>
        <tr><th>Reference</th><th>Category</th><th>Court</th><th>Hearing</th></tr>
        %s
      </table>
    </div>
    <div class="footer">
      <p>&copy; CivicWatch Case API</p>
    </div>
  </div>
</body>
</html>`, rows.String())
}

func nextHearingLabel(c models.Case) string {
	if c.Details.NextHearingDate == nil {
		return ""
	}
	return c.Details.NextHearingDate.Time().UTC().Format("2006-01-02 15:04 MST")
}
