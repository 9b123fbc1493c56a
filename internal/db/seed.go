package db

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/irlobby/internal/logger"
)

// tables in delete order (children first)
var seedTables = []string{
	"reviews", "messages", "conversations", "matches",
	"swipes", "activity_participants", "activities", "users",
}

func clearTables(db *gorm.DB) error {
	for _, t := range seedTables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, t := range seedTables {
			db.Exec("ALTER TABLE " + t + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, t := range seedTables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", t)
		}
	}
	return nil
}

// TagsJSON encodes tags for the activities.tags column.
func TagsJSON(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return datatypes.JSON(b)
}

var seedActivities = []struct {
	title    string
	location string
	tags     []string
	capacity *int
}{
	{"Sunrise Yoga", "Hyde Park", []string{"wellness", "outdoors"}, intPtr(8)},
	{"Board Game Night", "The Dice Bar", []string{"games", "social"}, intPtr(6)},
	{"5k Social Run", "Victoria Park", []string{"running", "outdoors"}, nil},
	{"Pottery Taster", "Clay Studio", []string{"arts"}, intPtr(4)},
	{"Climbing Session", "Castle Wall", []string{"sport", "climbing"}, intPtr(10)},
}

func intPtr(n int) *int { return &n }

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 12 users with hashed passwords ("password").
//  3. Creates a handful of activities hosted by the first users.
//  4. Random users swipe on activities (~70% likes); every like on an open
//     activity becomes a participant, a match with the host and a conversation
//     with a short exchange.
//  5. Roughly half of the matches get a review from the joining user.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	if err := clearTables(db); err != nil {
		return err
	}
	logger.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Users ---
	names := []string{"Alex", "Sam", "Jo", "Kim", "Robin", "Charlie", "Max", "Noor", "Ira", "Lee", "", ""}
	users := make([]User, 0, len(names))
	for i, name := range names {
		u := User{
			Username:     fmt.Sprintf("user%d", i+1),
			Email:        fmt.Sprintf("user%d@example.com", i+1),
			FirstName:    name,
			PasswordHash: string(hash),
			Active:       true,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, u)
	}
	logger.Info("seeded users", "count", len(users))

	// --- Activities ---
	activities := make([]Activity, 0, len(seedActivities))
	for i, sa := range seedActivities {
		starts := time.Now().Add(time.Duration(24*(i+1)) * time.Hour).UTC()
		a := Activity{
			HostID:   users[i%3].ID,
			Title:    sa.title,
			Location: sa.location,
			StartsAt: &starts,
			Capacity: sa.capacity,
			Tags:     TagsJSON(sa.tags),
		}
		if err := db.Create(&a).Error; err != nil {
			return fmt.Errorf("failed to seed activity: %w", err)
		}
		activities = append(activities, a)
	}
	logger.Info("seeded activities", "count", len(activities))

	// --- Swipes, matches, conversations ---
	matches := 0
	for _, u := range users[3:] {
		for _, a := range activities {
			if r.Intn(100) >= 50 {
				continue
			}
			liked := r.Intn(100) < 70
			swipe := Swipe{UserID: u.ID, ActivityID: a.ID, Liked: liked}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "activity_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
			}).Create(&swipe).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}
			if !liked {
				continue
			}

			var joined int64
			db.Model(&ActivityParticipant{}).Where("activity_id = ?", a.ID).Count(&joined)
			if a.Capacity != nil && int(joined) >= *a.Capacity {
				continue
			}
			if err := seedMatch(db, r, a, u); err != nil {
				return err
			}
			matches++
		}
	}
	logger.Info("seeded matches", "count", matches)

	return nil
}

func seedMatch(db *gorm.DB, r *rand.Rand, a Activity, u User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ActivityParticipant{ActivityID: a.ID, UserID: u.ID}).Error; err != nil {
			return fmt.Errorf("failed to seed participant: %w", err)
		}
		m := Match{ActivityID: a.ID, UserAID: a.HostID, UserBID: u.ID}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to seed match: %w", err)
		}
		c := Conversation{MatchID: &m.ID}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("failed to seed conversation: %w", err)
		}
		lines := []struct {
			from uint64
			body string
		}{
			{a.HostID, "Hey, glad you're joining " + a.Title + "!"},
			{u.ID, "Looking forward to it"},
		}
		for i := 0; i < 1+r.Intn(len(lines)); i++ {
			msg := Message{ConversationID: c.ID, SenderID: lines[i].from, Body: lines[i].body}
			if err := tx.Create(&msg).Error; err != nil {
				return fmt.Errorf("failed to seed message: %w", err)
			}
		}
		if r.Intn(2) == 0 {
			rv := Review{ReviewerID: u.ID, RevieweeID: a.HostID, ActivityID: a.ID, Rating: 3 + r.Intn(3), Comment: "Great host"}
			if err := tx.Create(&rv).Error; err != nil {
				return fmt.Errorf("failed to seed review: %w", err)
			}
		}
		return nil
	})
}

// SeedMinimalTestData loads a small deterministic fixture used by tests:
//
//	users 1 (Alex, host), 2 (Sam), 3 (no first name)
//	activity 1 "Sunrise Yoga" capacity 2 hosted by 1, participant 2
//	activity 2 "Board Game Night" capacity 1 hosted by 1, participant 3 (full)
//	activity 3 "Closed Meetup" hosted by 2, is_approved=false
//	match 1 (1,2) on activity 1, conversation 1 with two messages
//	match 2 (1,3) on activity 2, conversation 2 with no messages
//	review 1 by 2 of 1 on activity 1
func SeedMinimalTestData(db *gorm.DB) error {
	if err := clearTables(db); err != nil {
		return err
	}

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	notApproved := false

	users := []User{
		{ID: 1, Username: "user1", Email: "u1@test.com", FirstName: "Alex", PasswordHash: "x"},
		{ID: 2, Username: "user2", Email: "u2@test.com", FirstName: "Sam", PasswordHash: "x"},
		{ID: 3, Username: "user3", Email: "u3@test.com", PasswordHash: "x"},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	activities := []Activity{
		{ID: 1, HostID: 1, Title: "Sunrise Yoga", Location: "Hyde Park", Capacity: intPtr(2), Tags: TagsJSON([]string{"wellness"})},
		{ID: 2, HostID: 1, Title: "Board Game Night", Capacity: intPtr(1), Tags: TagsJSON(nil)},
		{ID: 3, HostID: 2, Title: "Closed Meetup", IsApproved: &notApproved, Tags: TagsJSON(nil)},
	}
	if err := db.Create(&activities).Error; err != nil {
		return err
	}

	participants := []ActivityParticipant{
		{ActivityID: 1, UserID: 2},
		{ActivityID: 2, UserID: 3},
	}
	if err := db.Create(&participants).Error; err != nil {
		return err
	}

	matches := []Match{
		{ID: 1, ActivityID: 1, UserAID: 1, UserBID: 2, CreatedAt: base},
		{ID: 2, ActivityID: 2, UserAID: 1, UserBID: 3, CreatedAt: base.Add(time.Hour)},
	}
	if err := db.Create(&matches).Error; err != nil {
		return err
	}

	m1, m2 := uint64(1), uint64(2)
	conversations := []Conversation{{ID: 1, MatchID: &m1}, {ID: 2, MatchID: &m2}}
	if err := db.Create(&conversations).Error; err != nil {
		return err
	}

	messages := []Message{
		{ID: 1, ConversationID: 1, SenderID: 1, Body: "welcome!", CreatedAt: base.Add(30 * time.Minute)},
		{ID: 2, ConversationID: 1, SenderID: 2, Body: "see you there", CreatedAt: base.Add(2 * time.Hour)},
	}
	if err := db.Create(&messages).Error; err != nil {
		return err
	}

	return db.Create(&Review{ID: 1, ReviewerID: 2, RevieweeID: 1, ActivityID: 1, Rating: 5, Comment: "great"}).Error
}
