package main

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhub/internal/config"
	"taskhub/internal/db"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const (
	demoEmail    = "demo@taskhub.local"
	demoPassword = "demo-password"
)

type seedTask struct {
	title    string
	status   model.TaskStatus
	priority model.TaskPriority
	deadline string // YYYY-MM-DD, empty for none
}

var seedTasks = []seedTask{
	{title: "Write project proposal", status: model.TaskStatusDone, priority: model.TaskPriorityHigh, deadline: "2026-09-01"},
	{title: "Review pull requests", status: model.TaskStatusInProgress, priority: model.TaskPriorityMedium},
	{title: "Update dependency versions", status: model.TaskStatusPending, priority: model.TaskPriorityLow},
	{title: "Prepare sprint demo", status: model.TaskStatusPending, priority: model.TaskPriorityHigh, deadline: "2026-09-15"},
	{title: "Archive stale branches", status: model.TaskStatusPending, priority: model.TaskPriorityLow},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	ctx := context.Background()

	user, err := seedUser(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed user: %v", err)
	}
	log.Printf("Demo user ready: %s (id=%d)", user.Email, user.ID)

	created, err := seedDemoTasks(ctx, taskRepo, user.ID)
	if err != nil {
		log.Fatalf("Failed to seed tasks: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Tasks created: %d", created)
	log.Printf("  - Login with %s / %s", demoEmail, demoPassword)
}

// seedUser creates the demo user if it does not exist yet.
func seedUser(ctx context.Context, repo repository.UserRepository) (*model.User, error) {
	existing, err := repo.FindByEmail(ctx, demoEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), 10)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:        demoEmail,
		PasswordHash: string(hashed),
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// seedDemoTasks inserts the demo tasks, skipping any that already exist for
// the user so reruns stay idempotent.
func seedDemoTasks(ctx context.Context, repo repository.TaskRepository, userID uint) (int, error) {
	existing, err := repo.List(ctx, repository.TaskListFilter{UserID: &userID})
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.Title] = true
	}

	created := 0
	for _, st := range seedTasks {
		if have[st.title] {
			continue
		}
		task := &model.Task{
			Title:    st.title,
			Status:   st.status,
			Priority: st.priority,
			UserID:   userID,
		}
		if st.deadline != "" {
			deadline, err := time.ParseInLocation("2006-01-02", st.deadline, time.UTC)
			if err != nil {
				return created, err
			}
			task.Deadline = &deadline
		}
		if err := repo.Create(ctx, task); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}
