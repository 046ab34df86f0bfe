package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

// InstrumentGorm adds otelgorm spans to every statement. Query variables
// are left out of spans unless withVariables is set.
func InstrumentGorm(db *gorm.DB, dbName string, withVariables bool) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(dbName)}
	if !withVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("register otelgorm: %w", err)
	}
	return nil
}
