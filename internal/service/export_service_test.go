package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedExpenses(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.expenses.CreateExpense(ctx, "u1", "Coffee, large", dec("3.5"), "food")
	require.NoError(t, err)
	_, err = f.expenses.CreateExpense(ctx, "u1", "Rent", dec("900"), "rent")
	require.NoError(t, err)
	_, err = f.expenses.CreateExpense(ctx, "u2", "Other", dec("1"), "misc")
	require.NoError(t, err)
}

func TestWriteCSV(t *testing.T) {
	f := newFixture()
	seedExpenses(t, f)
	svc := NewExportService(f.expenses, nil, nil, ExportOptions{}, f.logger)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(context.Background(), "u1", &buf))

	want := "Date,Description,Category,Amount\n" +
		"2024-03-01,Rent,rent,900.00\n" +
		"2024-03-01,\"Coffee, large\",food,3.50\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	f := newFixture()
	svc := NewExportService(f.expenses, nil, nil, ExportOptions{}, f.logger)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(context.Background(), "nobody", &buf))
	assert.Equal(t, "Date,Description,Category,Amount\n", buf.String())
}

func TestPublishWithoutSinks(t *testing.T) {
	f := newFixture()
	svc := NewExportService(f.expenses, nil, nil, ExportOptions{}, f.logger)
	ctx := context.Background()

	_, err := svc.Publish(ctx, "u1")
	assert.ErrorIs(t, err, ErrExportsDisabled)
	_, err = svc.ListExports(ctx, "u1")
	assert.ErrorIs(t, err, ErrExportsDisabled)
	_, err = svc.DeleteExports(ctx, "u1")
	assert.ErrorIs(t, err, ErrExportsDisabled)
}

func TestPublishToAllSinks(t *testing.T) {
	f := newFixture()
	seedExpenses(t, f)
	objects := newMemoryObjects()
	sheet := &recordingSheet{}
	svc := NewExportService(f.expenses, objects, sheet, ExportOptions{
		Bucket:    "bucket",
		KeyPrefix: "/exports/",
		URLTTL:    10 * time.Minute,
	}, f.logger)
	ctx := context.Background()

	result, err := svc.Publish(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.True(t, strings.HasPrefix(result.Key, "exports/u1/expenses-"), result.Key)
	assert.True(t, strings.HasSuffix(result.Key, ".csv"), result.Key)
	assert.Equal(t, "s3://bucket/"+result.Key, result.Location)
	assert.Contains(t, result.URL, "ttl=10m0s")
	assert.Equal(t, "Expenses!A1:D2", result.SheetRange)

	body := string(objects.get("bucket/" + result.Key))
	assert.True(t, strings.HasPrefix(body, "Date,Description,Category,Amount\n"))
	assert.Contains(t, body, "Rent,rent,900.00")

	require.Len(t, sheet.rows, 2)
	assert.Equal(t, []string{"2024-03-01", "Rent", "rent", "900.00"}, sheet.rows[0])

	listed, err := svc.ListExports(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, result.Key, listed[0].Key)

	others, err := svc.ListExports(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)

	n, err := svc.DeleteExports(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPublishSinkFailure(t *testing.T) {
	f := newFixture()
	seedExpenses(t, f)
	objects := newMemoryObjects()
	objects.err = errUnavailable
	svc := NewExportService(f.expenses, objects, nil, ExportOptions{Bucket: "bucket"}, f.logger)

	_, err := svc.Publish(context.Background(), "u1")
	assert.ErrorIs(t, err, errUnavailable)
}
