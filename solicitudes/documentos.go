package solicitudes

import (
	"fmt"
	"os"

	pdf "rsc.io/pdf"
)

// ValidarDocumentoPDF revisa que el archivo de soporte sea un PDF legible
// con al menos una página. Devuelve la marca de validación a anotar en la
// solicitud, o cadena vacía si el documento pasa.
func ValidarDocumentoPDF(ruta string) string {
	info, err := os.Stat(ruta)
	if err != nil {
		return fmt.Sprintf("documento ilegible: %s", ruta)
	}
	if info.Size() == 0 {
		return fmt.Sprintf("documento vacío: %s", ruta)
	}
	r, err := pdf.Open(ruta)
	if err != nil {
		return fmt.Sprintf("el documento no es un PDF válido: %s", ruta)
	}
	if r.NumPage() < 1 {
		return fmt.Sprintf("el PDF no tiene páginas: %s", ruta)
	}
	return ""
}

// ValidarDocumentos corre el chequeo sobre todos los adjuntos y devuelve
// las marcas acumuladas para errores_validacion.
func ValidarDocumentos(docs []Documento) []string {
	var marcas []string
	for _, d := range docs {
		if m := ValidarDocumentoPDF(d.Ruta); m != "" {
			marcas = append(marcas, m)
		}
	}
	return marcas
}
