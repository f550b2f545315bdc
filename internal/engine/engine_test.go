package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/service"
	"github.com/sublens-app/sublens/internal/testutil"
)

func newPipeline(t *testing.T) (*Pipeline, service.Storage) {
	t.Helper()

	store := testutil.SetupTestDB(t)
	p, err := New(Config{
		Storage: store,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return p, store
}

func smbcNotice(id string, receivedAt time.Time, date, merchant, amount string) model.RawMessage {
	return testutil.NewMail(id,
		"usage@vpass.ne.jp",
		"【三井住友カード】ご利用のお知らせ",
		"ご利用日時: "+date+"\n"+
			"ご利用先: "+merchant+"\n"+
			"ご利用金額: "+amount+"\n",
		receivedAt)
}

func rakutenSpeculative(id string, receivedAt time.Time, date, amount string) model.RawMessage {
	return testutil.NewMail(id,
		"info@mail.rakuten-card.co.jp",
		"カード利用お知らせメール(速報版)",
		"楽天カードをご利用いただきありがとうございます。\n"+
			"利用日: "+date+"\n"+
			"利用金額: "+amount+"\n",
		receivedAt)
}

func TestProcessBatchInsertsConfirmedNotice(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	received := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	result, err := p.ProcessBatch(ctx, []model.RawMessage{
		smbcNotice("m1", received, "2024年3月5日", "NETFLIX.COM", "1,320円"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Inserted)
	assert.Zero(t, result.Reconciled)
	assert.Zero(t, result.Held)
	assert.Empty(t, result.Errors)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	txn := txns[0]
	assert.Equal(t, "Netflix", txn.Merchant)
	assert.Equal(t, "NETFLIX.COM", txn.MerchantRaw)
	assert.Equal(t, model.CategorySubscription, txn.Category)
	assert.Equal(t, int64(1320), txn.Amount)
	assert.Equal(t, model.StatusConfirmed, txn.Status)
	assert.True(t, txn.IsSubscription)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), txn.Date.UTC())
	assert.Equal(t, "m1", txn.SourceMessageID)
}

func TestProcessBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	batch := []model.RawMessage{
		smbcNotice("m1", time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), "2024年3月5日", "NETFLIX.COM", "1,320円"),
	}

	_, err := p.ProcessBatch(ctx, batch)
	require.NoError(t, err)

	result, err := p.ProcessBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Duplicates)
	assert.Zero(t, result.Inserted)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestProcessBatchReconcilesSpeculative(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	day1 := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	result, err := p.ProcessBatch(ctx, []model.RawMessage{
		rakutenSpeculative("m1", day1, "2024/03/05", "2,480円"),
		smbcNotice("m2", day2, "2024年3月6日", "NETFLIX.COM", "2,480円"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Held)
	assert.Equal(t, 1, result.Reconciled)
	assert.Zero(t, result.Inserted)
	assert.Empty(t, result.Errors)

	// The pending record was merged in place; one row, now confirmed.
	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.StatusConfirmed, txns[0].Status)
	assert.Equal(t, "Netflix", txns[0].Merchant)
	assert.Equal(t, int64(2480), txns[0].Amount)

	unresolved, err := store.ListUnresolvedPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, unresolved)
}

func TestProcessBatchKeepsDistantConfirmationSeparate(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	day1 := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	day6 := day1.AddDate(0, 0, 5)

	result, err := p.ProcessBatch(ctx, []model.RawMessage{
		rakutenSpeculative("m1", day1, "2024/03/05", "2,480円"),
		smbcNotice("m2", day6, "2024年3月10日", "NETFLIX.COM", "2,480円"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Held)
	assert.Equal(t, 1, result.Inserted)
	assert.Zero(t, result.Reconciled)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	unresolved, err := store.ListUnresolvedPending(ctx)
	require.NoError(t, err)
	assert.Len(t, unresolved, 1)
}

func TestProcessBatchDropsAnnouncement(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	announcement := testutil.NewMail("m1",
		"announce@smbc-card.com",
		"【重要】会員規約改定のお知らせ",
		"会員規約改定についてご案内いたします。\n"+
			"お支払い例: 10,000円の場合、手数料は変わりません。\n",
		time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))

	result, err := p.ProcessBatch(ctx, []model.RawMessage{
		announcement,
		smbcNotice("m2", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), "2024年3月5日", "NETFLIX.COM", "1,320円"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Funnel.Reasons[model.ReasonAnnouncement])

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestProcessBatchRejectsPromotional(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	promo := testutil.NewMail("m1",
		"news@rakuten-card.co.jp",
		"カードご利用キャンペーンのお知らせ",
		"今なら抽選でポイント進呈!ご利用金額 1,000円 ごとに1口。\n",
		time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))

	result, err := p.ProcessBatch(ctx, []model.RawMessage{promo})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Inserted)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns)

	// Rejections are remembered so re-runs skip the filter work.
	done, err := store.IsMessageProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProcessBatchSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	p, _ := newPipeline(t)

	result, err := p.ProcessBatch(ctx, []model.RawMessage{
		{ID: "m1", Sender: "usage@vpass.ne.jp"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "m1")
}

func TestProcessBatchRecomputesPatterns(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	dates := []struct{ received, body string }{
		{"2024-01-05", "2024年1月5日"},
		{"2024-02-04", "2024年2月4日"},
		{"2024-03-06", "2024年3月6日"},
	}

	var batch []model.RawMessage
	for i, d := range dates {
		received, err := time.Parse("2006-01-02", d.received)
		require.NoError(t, err)
		batch = append(batch, smbcNotice(
			"m"+string(rune('1'+i)), received, d.body, "NETFLIX.COM", "1,320円"))
	}

	result, err := p.ProcessBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 1, result.Recomputed)

	pattern, err := store.GetPattern(ctx, "netflix")
	require.NoError(t, err)
	assert.Equal(t, model.PeriodMonthly, pattern.Period)
	assert.Equal(t, 3, pattern.Occurrences)
	assert.True(t, pattern.IsLikelySubscription)
	assert.Equal(t, int64(1320), pattern.AverageAmount)
	assert.Len(t, pattern.TransactionIDs, 3)
}

func TestProcessBatchHonorsCancellation(t *testing.T) {
	p, _ := newPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessBatch(ctx, []model.RawMessage{
		smbcNotice("m1", time.Now(), "2024年3月5日", "NETFLIX.COM", "1,320円"),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessBatchReportsProgress(t *testing.T) {
	store := testutil.SetupTestDB(t)

	var ticks int
	p, err := New(Config{
		Storage:  store,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Progress: func() { ticks++ },
	})
	require.NoError(t, err)

	_, err = p.ProcessBatch(context.Background(), []model.RawMessage{
		smbcNotice("m1", time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), "2024年3月5日", "NETFLIX.COM", "1,320円"),
		rakutenSpeculative("m2", time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), "2024/03/06", "2,480円"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ticks)
}
