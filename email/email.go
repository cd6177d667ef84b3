package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

func send(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}
	if host == "" || port == "" || user == "" || pass == "" || from == "" {
		return fmt.Errorf("SMTP environment variables missing")
	}
	addr := fmt.Sprintf("%s:%s", host, port)
	auth := smtp.PlainAuth("", user, pass, host)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body))
	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}

func SendWelcome(to string) error {
	subject := "Bienvenido"
	body := "Gracias por registrarte en el portal. ¡Bienvenido!"
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] welcome sent to %s", to)
	return nil
}

// SendDecisionSolicitud notifica al solicitante la decisión del director.
func SendDecisionSolicitud(to, estado, motivo string) error {
	subject := "Resultado de tu solicitud de registro"
	body := fmt.Sprintf("Tu solicitud de registro médico quedó en estado: %s.", estado)
	if motivo != "" {
		body += fmt.Sprintf("\n\nMotivo: %s", motivo)
	}
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] solicitud decision (%s) sent to %s", estado, to)
	return nil
}

// SendCitaActualizada notifica al paciente un cambio de estado de su cita.
func SendCitaActualizada(to, mensaje string) error {
	subject := "Actualización de tu cita"
	if err := send(to, subject, mensaje); err != nil {
		return err
	}
	log.Printf("[EMAIL] cita update sent to %s", to)
	return nil
}

// SendSuscripcionActivada confirma la activación de un plan.
func SendSuscripcionActivada(to, plan string) error {
	subject := "Suscripción activada"
	body := fmt.Sprintf("Tu plan %s quedó activo. Gracias por tu pago.", plan)
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] subscription activation sent to %s", to)
	return nil
}
