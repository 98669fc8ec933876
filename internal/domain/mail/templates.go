package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// 模板名
const (
	TemplateOrderPlaced     = "order_placed"
	TemplateStatusChanged   = "order_status_changed"
	TemplatePaymentReceived = "payment_received"
)

// OrderLine 邮件里的订单行
type OrderLine struct {
	Name     string
	Quantity int
	PriceNGN int64
}

// OrderView 渲染订单邮件所需的数据
type OrderView struct {
	CustomerEmail string
	OrderNo       string
	Status        string
	Lines         []OrderLine
	SubtotalNGN   int64
	DiscountNGN   int64
	ShippingNGN   int64
	TotalNGN      int64
	City          string
	State         string
}

type template struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

var funcs = map[string]interface{}{"naira": FormatNaira}

const orderTableHTML = `<table>{{range .Lines}}<tr><td>{{.Name}} &times; {{.Quantity}}</td><td>{{naira .PriceNGN}}</td></tr>{{end}}
<tr><td>Subtotal</td><td>{{naira .SubtotalNGN}}</td></tr>
{{if .DiscountNGN}}<tr><td>Discount</td><td>-{{naira .DiscountNGN}}</td></tr>{{end}}
<tr><td>Shipping</td><td>{{naira .ShippingNGN}}</td></tr>
<tr><td><strong>Total</strong></td><td><strong>{{naira .TotalNGN}}</strong></td></tr></table>`

const orderTableText = `{{range .Lines}}- {{.Name}} x {{.Quantity}}: {{naira .PriceNGN}}
{{end}}Subtotal: {{naira .SubtotalNGN}}
{{if .DiscountNGN}}Discount: -{{naira .DiscountNGN}}
{{end}}Shipping: {{naira .ShippingNGN}}
Total: {{naira .TotalNGN}}`

var templates = map[string]template{
	TemplateOrderPlaced: newTemplate("Order {{.OrderNo}} received",
		`<p>Thank you for your order <strong>{{.OrderNo}}</strong>.</p>`+orderTableHTML+`<p>Delivery to {{.City}}, {{.State}}.</p>`,
		"Thank you for your order {{.OrderNo}}.\n\n"+orderTableText+"\n\nDelivery to {{.City}}, {{.State}}.\n"),
	TemplateStatusChanged: newTemplate("Order {{.OrderNo}} is now {{.Status}}",
		`<p>Your order <strong>{{.OrderNo}}</strong> is now <strong>{{.Status}}</strong>.</p>`,
		"Your order {{.OrderNo}} is now {{.Status}}.\n"),
	TemplatePaymentReceived: newTemplate("Payment received for order {{.OrderNo}}",
		`<p>We received your payment of {{naira .TotalNGN}} for order <strong>{{.OrderNo}}</strong>.</p>`+orderTableHTML,
		"We received your payment of {{naira .TotalNGN}} for order {{.OrderNo}}.\n\n"+orderTableText+"\n"),
}

func newTemplate(subject, html, text string) template {
	return template{
		subject: subject,
		html:    htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).Parse(html)),
		text:    texttemplate.Must(texttemplate.New("text").Funcs(funcs).Parse(text)),
	}
}

// Render 按模板渲染订单邮件
func Render(name string, view OrderView) (Message, error) {
	tpl, ok := templates[name]
	if !ok {
		return Message{}, fmt.Errorf("未知邮件模板: %s", name)
	}

	subject, err := texttemplate.New("subject").Parse(tpl.subject)
	if err != nil {
		return Message{}, err
	}
	var subj, html, text bytes.Buffer
	if err := subject.Execute(&subj, view); err != nil {
		return Message{}, fmt.Errorf("渲染邮件标题失败: %w", err)
	}
	if err := tpl.html.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("渲染HTML正文失败: %w", err)
	}
	if err := tpl.text.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("渲染文本正文失败: %w", err)
	}

	return Message{
		To:       view.CustomerEmail,
		Subject:  subj.String(),
		HTML:     html.String(),
		Text:     text.String(),
		Template: name,
	}, nil
}

// FormatNaira 12500 -> "NGN 12,500"
func FormatNaira(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "NGN " + sign + b.String()
}
