package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

// Publisher forwards envelopes to the event pipeline.
type Publisher interface {
	Publish(ctx context.Context, env models.Envelope) error
}

// Editor applies staff recipe edits to a catalog and announces them.
type Editor struct {
	catalog   *Catalog
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewEditor wires the recipe editor.
func NewEditor(catalog *Catalog, publisher Publisher, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{catalog: catalog, publisher: publisher, logger: logger, now: time.Now}
}

// Update replaces the recipe with the given id, creating it when absent, and
// publishes meal_updated_comprehensive.
func (e *Editor) Update(ctx context.Context, recipe models.Recipe, actor models.Actor) (models.Recipe, error) {
	if err := e.catalog.Put(recipe); err != nil {
		return models.Recipe{}, err
	}
	stored, err := e.catalog.Recipe(recipe.ID)
	if err != nil {
		return models.Recipe{}, err
	}

	e.logger.Info("recipe updated",
		zap.Int64("recipe_id", stored.ID),
		zap.Int("requirements", len(stored.Requirements)))

	if e.publisher == nil {
		return stored, nil
	}
	env, err := models.NewEnvelope(models.EventMealUpdatedComprehensive,
		fmt.Sprintf("%s updated the %s recipe", actorName(actor), stored.Name),
		models.MealUpdatedPayload{
			MealName:         stored.Name,
			TotalIngredients: len(stored.IngredientIDs()),
			UpdatedAt:        e.now().UTC(),
		})
	if err != nil {
		e.logger.Error("failed to build recipe envelope", zap.Error(err))
		return stored, nil
	}
	if actor != (models.Actor{}) {
		env.User = &actor
	}
	if err := e.publisher.Publish(ctx, env); err != nil {
		e.logger.Warn("failed to publish recipe event", zap.Error(err))
	}
	return stored, nil
}

func actorName(actor models.Actor) string {
	if actor.Name == "" {
		return "A user"
	}
	return actor.Name
}
