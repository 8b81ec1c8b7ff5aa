package lib

import (
	"fmt"
	"log"
	"os"
	"path"

	"dsb/src/models"

	"github.com/yeqown/go-qrcode"
)

// SendBookingConfirmation emails the customer their booking reference with a
// QR of the reference id attached, for showing at the school's front desk.
// It is called from the confirmation hook and must never fail the booking;
// every error ends in the log.
func SendBookingConfirmation(b *models.Booking) {
	fromName := os.Getenv("MAIL_FROM_NAME")
	from := os.Getenv("MAIL_FROM_ADDRESS")
	ref := b.ReferenceID.String()

	attachments := []string{}
	qrc, err := qrcode.New(ref)
	if err != nil {
		log.Printf("Could not generate QR for booking %d: %s\n", b.ID, err.Error())
	} else {
		filepath := path.Join(os.TempDir(), fmt.Sprintf("booking-%s.jpeg", ref))
		if err := qrc.Save(filepath); err != nil {
			log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		} else {
			attachments = append(attachments, filepath)
			defer os.Remove(filepath)
		}
	}

	schedule := ""
	if b.ScheduledDate != nil {
		schedule = fmt.Sprintf("<p>Your session is scheduled for <b>%s</b>.</p>", b.ScheduledDate.Format("Monday, 02 Jan 2006 at 03:04 PM"))
	}
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your booking is confirmed. Keep this reference for any follow-up:</p>
		<p><b>%s</b></p>
		%s
		<p>The attached QR code is your booking pass.</p>
	`, b.CustomerName, ref, schedule)

	err = SendMail(&SendMailInput{
		From:        from,
		FromName:    fromName,
		To:          []string{b.CustomerEmail},
		Subject:     fmt.Sprintf("Booking confirmed: %s", ref),
		Body:        body,
		Html:        true,
		Attachments: attachments,
	})
	if err != nil {
		log.Printf("Could not send confirmation mail for booking %d: %s\n", b.ID, err.Error())
	}
}
