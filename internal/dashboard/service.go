package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/journal"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/metrics"
	"nifty-pulse/internal/predict"
	"nifty-pulse/internal/types"
)

// HeadlineScorer aggregates headline sentiment.
type HeadlineScorer interface {
	Score(ctx context.Context, headlines []string) (types.SentimentResult, error)
}

// Recorder persists predictions outside the render path.
type Recorder interface {
	Append(e journal.Entry) error
}

// Deps holds every collaborator of the Service. Journal may be nil.
type Deps struct {
	Symbol       string
	MaxHeadlines int
	Price        interfaces.PriceSource
	Chain        interfaces.ChainSource
	News         interfaces.NewsSource
	Scorer       HeadlineScorer
	Predictor    *predict.Predictor
	Journal      Recorder
}

// Service assembles dashboard snapshots. It holds no per-render state and
// is safe for concurrent use when its collaborators are.
type Service struct {
	d   Deps
	now func() time.Time
}

var _ interfaces.Dashboard = (*Service)(nil)

func NewService(d Deps) *Service {
	if d.MaxHeadlines <= 0 {
		d.MaxHeadlines = 5
	}
	if d.Predictor == nil {
		d.Predictor = predict.New(predict.DefaultConfig())
	}
	return &Service{d: d, now: time.Now}
}

func (s *Service) Symbol() string { return s.d.Symbol }

// Snapshot fetches price, option chain and headlines in that order, scores
// the headlines and predicts a trend. Collaborator failures become
// diagnostics on the snapshot; only a cancelled context returns an error.
func (s *Service) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := s.now()
	timer := logger.StartOperation(ctx, "dashboard.Snapshot", "symbol", s.d.Symbol)
	ctx = timer.GetContext()

	snap := &types.Snapshot{
		ID:          uuid.NewString(),
		Symbol:      s.d.Symbol,
		GeneratedAt: started.Unix(),
		Headlines:   []string{},
	}

	var failures []error
	fail := func(source string, err error) {
		snap.Diagnostics = append(snap.Diagnostics, diagnostic(source, err))
		failures = append(failures, fmt.Errorf("%s: %w", source, err))
	}

	if q, err := s.d.Price.LatestPrice(ctx, s.d.Symbol); err != nil {
		fail("price", err)
	} else {
		snap.Price = &q
	}

	var rows []types.OptionChainRow
	if chain, err := s.d.Chain.OptionChain(ctx, s.d.Symbol); err != nil {
		fail("chain", err)
	} else {
		snap.Chain = &chain
		rows = chain.Rows
	}

	if headlines, err := s.d.News.Headlines(ctx, s.d.MaxHeadlines); err != nil {
		fail("news", err)
	} else {
		snap.Headlines = headlines
	}

	res, err := s.d.Scorer.Score(ctx, snap.Headlines)
	if err != nil {
		fail("sentiment", err)
	}
	snap.Sentiment = res
	metrics.SentimentLabels.WithLabelValues(res.Backend, string(res.Label)).Inc()

	var price *float64
	if snap.Price != nil {
		p := snap.Price.Price
		price = &p
	}
	snap.Prediction = s.d.Predictor.Predict(rows, res.Label, price)
	s.recordPrediction(ctx, snap)

	elapsed := timer.Elapsed()
	snap.DurationMS = elapsed.Milliseconds()
	metrics.SnapshotDuration.Observe(elapsed.Seconds())

	if s.d.Journal != nil {
		if err := s.d.Journal.Append(journal.FromSnapshot(snap)); err != nil {
			logger.ErrorWithErr(ctx, "Failed to journal prediction", err, "snapshot_id", snap.ID)
		}
	}

	if degraded := errors.Join(failures...); degraded != nil {
		timer.EndWithError(degraded, "snapshot_id", snap.ID, "diagnostics", len(snap.Diagnostics))
	} else {
		timer.End("snapshot_id", snap.ID, "diagnostics", len(snap.Diagnostics))
	}
	return snap, nil
}

func (s *Service) recordPrediction(ctx context.Context, snap *types.Snapshot) {
	pred := snap.Prediction
	outcome := string(pred.Trend)

	if pred.Insufficient() {
		outcome = string(types.StatusInsufficientData)
		snap.Diagnostics = append(snap.Diagnostics, types.Diagnostic{
			Source:  "prediction",
			Kind:    types.KindComputationSkipped,
			Message: pred.Reason,
		})
	} else {
		metrics.PutCallRatio.WithLabelValues(snap.Symbol).Set(pred.PCR)
	}
	metrics.Predictions.WithLabelValues(snap.Symbol, outcome).Inc()

	fields := []any{"snapshot_id", snap.ID, "pcr", pred.PCR, "rows_used", pred.RowsUsed}
	if pred.TargetPrice != nil {
		fields = append(fields, "target_price", *pred.TargetPrice)
	}
	logger.Prediction(ctx, snap.Symbol, string(pred.Status), string(pred.Trend), string(pred.Sentiment),
		pred.TotalCallOI, pred.TotalPutOI, fields...)
}

func diagnostic(source string, err error) types.Diagnostic {
	return types.Diagnostic{Source: source, Kind: types.KindOf(err), Message: err.Error()}
}
