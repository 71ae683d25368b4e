package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainStatusLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf, true)

	p.Skipped()
	p.Published("Перцептрон", "preview")
	p.Failed(errors.New("configuration: telegram chat id is empty"))

	assert.Equal(t,
		"Не час постити — виходимо\n"+
			"Опубліковано\n"+
			"  Перцептрон\n"+
			"  → preview\n"+
			"Помилка: configuration: telegram chat id is empty\n",
		buf.String())
}

func TestPublishedWithoutDetails(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, true).Published("", "")
	assert.Equal(t, "Опубліковано\n", buf.String())
}

func TestSummarySkipsEmptyValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, true).Summary([]Field{
		{Name: "title", Value: "Перцептрон"},
		{Name: "url", Value: ""},
		{Name: "image", Value: "1280x720"},
	})

	out := buf.String()
	assert.Contains(t, out, "Перцептрон")
	assert.Contains(t, out, "1280x720")
	assert.NotContains(t, out, "url")
}

func TestFieldRows(t *testing.T) {
	t.Parallel()

	rows := fieldRows([]Field{{Name: "a", Value: "1"}, {Name: "b"}})
	assert.Equal(t, [][]string{{"a", "1"}}, rows)
}
