package ledger

import "github.com/rewardhub/backend/internal/models"

// DefaultTasks is the catalog every new store starts with.
func DefaultTasks() []models.NewTask {
	return []models.NewTask{
		{
			Title:       "Watch an Ad",
			Description: "Watch a 30-second advertisement to earn points",
			Points:      10,
			Type:        models.TaskTypeAd,
		},
		{
			Title:       "Complete Survey",
			Description: "Share your opinion in a quick 2-minute survey",
			Points:      50,
			Type:        models.TaskTypeSurvey,
		},
		{
			Title:       "Play Mini-Game",
			Description: "Play a quick puzzle game to earn points",
			Points:      25,
			Type:        models.TaskTypeGame,
		},
	}
}
