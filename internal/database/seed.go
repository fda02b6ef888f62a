package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ecotrack/internal/models"
	"ecotrack/internal/store"
)

// MainAdmin describes the account created on first start.
type MainAdmin struct {
	Email    string
	Name     string
	Password string
}

// Seed populates an empty store with the main admin and the launch blog
// posts. It works on any store backend and is safe to call on every start:
// collections that already hold data are left alone.
func Seed(ctx context.Context, posts *store.PostStore, admins *store.AdminStore, admin MainAdmin) error {
	main, err := admins.EnsureMainAdmin(ctx, admin.Email, admin.Name, admin.Password)
	if err != nil {
		return fmt.Errorf("seed main admin: %w", err)
	}

	seeded, err := posts.SeedIfEmpty(ctx, SamplePosts())
	if err != nil {
		return err
	}
	if seeded {
		slog.Info("store seeded with sample posts", "posts", len(SamplePosts()))
	} else {
		slog.Info("posts already present, skipping sample posts")
	}

	slog.Info("main admin ready", "email", main.Email)
	return nil
}

// SamplePosts returns the three launch articles with their approved reader
// comments.
func SamplePosts() []models.BlogPost {
	day := func(d int) time.Time { return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC) }
	comment := func(id, author, text string, d int) models.Comment {
		return models.Comment{ID: id, Author: author, Content: text, Date: day(d), Status: models.CommentStatusApproved}
	}

	return []models.BlogPost{
		{
			ID:       "1",
			Slug:     "the-rise-of-renewable-energy",
			Title:    "The Rise of Renewable Energy",
			Excerpt:  "How solar and wind power are transforming our energy landscape and reducing global carbon emissions.",
			Content:  "Renewable energy sources have seen unprecedented growth over the past decade. Solar and wind power installations have increased by over 300%, making clean energy more accessible and affordable than ever before. This transition is crucial in our fight against climate change.",
			Image:    "/static/img/blog-renewable.svg",
			Author:   "Sarah Johnson",
			Date:     day(15),
			Status:   models.PostStatusPublished,
			Category: "Environment",
			Comments: []models.Comment{
				comment("1-1", "Mike Chen", "Great article! I've installed solar panels on my home last year and the savings are incredible.", 16),
				comment("1-2", "Emma Wilson", "This gives me hope for the future. We need more investments in renewable infrastructure.", 17),
			},
		},
		{
			ID:       "2",
			Slug:     "sustainable-transportation-choices",
			Title:    "Sustainable Transportation Choices",
			Excerpt:  "Exploring eco-friendly alternatives to reduce your daily commute's carbon footprint.",
			Content:  "Transportation accounts for nearly 29% of global greenhouse gas emissions. By choosing sustainable options like cycling, public transit, or electric vehicles, individuals can significantly reduce their environmental impact. Even small changes in daily habits can create meaningful differences.",
			Image:    "/static/img/blog-cycling.svg",
			Author:   "David Martinez",
			Date:     day(10),
			Status:   models.PostStatusPublished,
			Category: "Lifestyle",
			Comments: []models.Comment{
				comment("2-1", "Lisa Anderson", "I've been cycling to work for 6 months now. Not only am I reducing emissions, but I feel healthier too!", 11),
			},
		},
		{
			ID:       "3",
			Slug:     "community-action-for-climate-change",
			Title:    "Community Action for Climate Change",
			Excerpt:  "How local initiatives are making a global impact on carbon reduction efforts.",
			Content:  "Communities around the world are taking action against climate change through tree-planting campaigns, local renewable energy projects, and sustainable agriculture. These grassroots movements demonstrate that collective action at the local level can drive significant environmental change.",
			Image:    "/static/img/blog-community.svg",
			Author:   "Rachel Green",
			Date:     day(5),
			Status:   models.PostStatusPublished,
			Category: "Community",
			Comments: []models.Comment{
				comment("3-1", "Tom Harris", "Our neighborhood started a community garden last month. It's amazing how much we can accomplish together!", 6),
				comment("3-2", "Sophie Lee", "I'd love to see more articles about local initiatives. They're so inspiring!", 7),
			},
		},
	}
}
