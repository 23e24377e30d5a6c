package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// onConflictCheckpoint builds the ON CONFLICT clause for the additive
// (source,company) checkpoint counter upsert: the conflicting row's
// success/failure column is incremented rather than overwritten.
func onConflictCheckpoint(incrementCol string) clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "company"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			incrementCol: gorm.Expr(incrementCol + " + 1"),
			"updated_at":  gorm.Expr("now()"),
		}),
	}
}
