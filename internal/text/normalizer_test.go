package text

import (
	"strings"
	"testing"

	"learn-audio/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const unitHTML = `
<nav>Saltar al contenido principal</nav>
<div class="xp-tag">100 XP</div>
<ul class="metadata"><li>5 minutos</li></ul>
<h1>Introducción a Power Apps</h1>
<p>Power Apps es una plataforma de <strong>bajo código</strong> para crear aplicaciones!!!</p>
<div class="codeHeader"><span>Azure CLI</span><button>Copiar</button></div>
<pre><code>az login</code></pre>
<h2>Componentes principales</h2>
<ul>
  <li>Aplicaciones de lienzo</li>
  <li>Aplicaciones basadas en modelos,</li>
</ul>
<p>Primera línea<br>segunda línea</p>
<p>Siguiente unidad</p>
<p>https://learn.microsoft.com/es-es/power-apps/</p>
<p>¿Le ha resultado útil esta página?</p>
<script>var x = 1;</script>
`

func TestNormalize_HTML(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	out, err := n.Normalize(unitHTML)
	require.NoError(t, err)

	expected := strings.Join([]string{
		"Introducción a Power Apps.",
		"Power Apps es una plataforma de bajo código para crear aplicaciones!",
		"Componentes principales.",
		"Aplicaciones de lienzo.",
		"Aplicaciones basadas en modelos.",
		"Primera línea.",
		"segunda línea.",
	}, "\n\n")
	assert.Equal(t, expected, out)

	assert.NotContains(t, out, "az login")
	assert.NotContains(t, out, "Saltar")
	assert.NotContains(t, out, "XP")
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	inputs := []string{
		unitHTML,
		"Hello world.",
		"Título sin punto\nTexto con coma final,\n\n\nOtra línea... con puntos??",
		"<p>Qué es Dataverse</p><p>Un servicio de datos - </p>",
	}
	for _, input := range inputs {
		once, err := n.Normalize(input)
		require.NoError(t, err, input)

		twice, err := n.Normalize(once)
		require.NoError(t, err, input)
		assert.Equal(t, once, twice, input)
	}
}

func TestNormalize_PlainText(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	out, err := n.Normalize("Hello world.")
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", out)

	out, err = n.Normalize("Paso 1\nConfigurar el entorno\n10 min\nwww.example.com\nok")
	require.NoError(t, err)
	assert.Equal(t, "Configurar el entorno.", out)
}

func TestNormalize_LongLinesKeepPhrases(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	line := "En este módulo vas a buscar datos en Dataverse y mostrar los resultados en una aplicación de lienzo."
	out, err := n.Normalize(line)
	require.NoError(t, err)
	assert.Equal(t, line, out)

	// "light" como palabra, no como parte de otra
	out, err = n.Normalize("Flight plans and highlights")
	require.NoError(t, err)
	assert.Equal(t, "Flight plans and highlights.", out)
}

func TestNormalize_EmptyContent(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	for _, input := range []string{"", "   \n\t ", "<nav>Inicio</nav><pre>code</pre>", "<p>Comentarios</p><p>5 minutos</p>"} {
		_, err := n.Normalize(input)
		require.Error(t, err, input)
		assert.ErrorIs(t, err, models.ErrEmptyContent, input)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "le ha resultado util esta pagina", Fold("¿Le ha resultado útil esta página?"))
	assert.Equal(t, "leer en ingles", Fold("Leer en INGLÉS"))
	assert.Equal(t, "", Fold("!!!"))
}
