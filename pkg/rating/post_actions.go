package rating

import (
	"context"

	"go.uber.org/zap"

	"github.com/mindtuner/mindtuner-go/pkg/meditation"
)

// Post-action names, also used as metric labels.
const (
	actionLinkRecord   = "link_record"
	actionTagAggregate = "tag_aggregate"
)

// postAction is a best-effort follow-up to a stored rating. Its error is
// reported through runPostActions and never reaches the caller.
type postAction struct {
	name string
	run  func(ctx context.Context) error
}

func (l *Ledger) postActionsFor(rec *Record) []postAction {
	var actions []postAction

	if rec.MeditationRecordID != "" && l.linker != nil {
		actions = append(actions, postAction{
			name: actionLinkRecord,
			run: func(ctx context.Context) error {
				return l.linker.ApplyRating(ctx, rec.MeditationRecordID, meditation.Rating{
					Score:   rec.Score,
					Comment: rec.Comment,
					Tags:    rec.Tags,
					RatedAt: rec.CreatedAt,
				})
			},
		})
	}

	if len(rec.Tags) > 0 {
		actions = append(actions, postAction{
			name: actionTagAggregate,
			run: func(ctx context.Context) error {
				doc, err := aggregateToDocument(&tagAggregate{
					FeedbackID: l.node.Generate().String(),
					RatingID:   rec.ID,
					UserID:     rec.UserID,
					Score:      rec.Score,
					Tags:       rec.Tags,
					Comment:    rec.Comment,
					CreatedAt:  rec.CreatedAt,
				})
				if err != nil {
					return err
				}
				return l.store.Upsert(ctx, doc)
			},
		})
	}

	return actions
}

func (l *Ledger) runPostActions(ctx context.Context, rec *Record, actions []postAction) {
	for _, a := range actions {
		if err := a.run(ctx); err != nil {
			PostActionFailures.WithLabelValues(a.name).Inc()
			l.logger.Warn("rating post-action failed",
				zap.String("action", a.name),
				zap.String("rating_id", rec.ID),
				zap.String("user_id", rec.UserID),
				zap.Error(err),
			)
		}
	}
}
