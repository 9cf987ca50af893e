package email

// Email templates using HTML

const meetingConfirmationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .card {
            border: 1px solid #e0e0e0;
            border-radius: 8px;
            overflow: hidden;
        }
        .header {
            background: #4F46E5;
            color: white;
            padding: 20px;
            text-align: center;
        }
        .header h1 {
            margin: 0;
            font-size: 24px;
        }
        .content {
            padding: 30px 20px;
        }
        .content h2 {
            color: #4F46E5;
            font-size: 20px;
        }
        .info-box {
            background: #f9f9f9;
            padding: 20px;
            border-radius: 5px;
            border: 1px solid #eee;
            margin-top: 20px;
        }
        .info-box h3 {
            margin: 0 0 15px 0;
            color: #4F46E5;
            border-bottom: 2px solid #e0e0e0;
            padding-bottom: 10px;
        }
        .info-box td {
            padding: 10px 0;
        }
        .info-label {
            font-weight: bold;
            width: 120px;
        }
        .footer {
            background: #f0f0f0;
            color: #777;
            padding: 15px;
            text-align: center;
            font-size: 12px;
        }
    </style>
</head>
<body>
<div class="card">
    <div class="header">
        <h1>Meeting Confirmation</h1>
    </div>
    <div class="content">
        <h2>Hello {{.ClientName}},</h2>
        <p>This email is to confirm your upcoming meeting that has been scheduled.</p>
        <div class="info-box">
            <h3>Meeting Details:</h3>
            <table style="width: 100%; border-collapse: collapse;">
                <tbody>
                    <tr><td class="info-label">Subject:</td><td>{{.Subject}}</td></tr>
                    <tr><td class="info-label">Date:</td><td>{{.Date}}</td></tr>
                    <tr><td class="info-label">Time:</td><td>{{.Time}}</td></tr>
                    {{if .Duration}}<tr><td class="info-label">Duration:</td><td>{{.Duration}}</td></tr>{{end}}
                </tbody>
            </table>
        </div>
        <p style="margin-top: 30px; font-size: 14px;">If you have any questions or need to reschedule, please contact us.</p>
        <p style="font-size: 14px;">Best regards,<br>The Team</p>
    </div>
    <div class="footer">
        <p style="margin: 0;">This is an automated message. Please do not reply directly.</p>
    </div>
</div>
</body>
</html>
`
