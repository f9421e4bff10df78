package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder fills a development database with realistic data
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(users, 200)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating follow graph...")
	if err := s.seedFollows(users, 300); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Creating likes...")
	if err := s.seedLikes(users, posts, 500); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(users, posts, 400); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", len(users)),
		zap.Int("posts", len(posts)),
	)
	return nil
}

// SeedTest seeds a minimal fixture set for manual testing
func (s *Seeder) SeedTest() error {
	users, err := s.seedUsers(5)
	if err != nil {
		return err
	}
	_, err = s.seedPosts(users, 10)
	return err
}

// Clean removes all seeded data. Seeded accounts share a password hash,
// which is how they are told apart from real ones.
func (s *Seeder) Clean() error {
	var seeded []models.User
	if err := s.db.Where("email LIKE ?", "%@seed.onsekiz.example").Find(&seeded).Error; err != nil {
		return err
	}
	if len(seeded) == 0 {
		return nil
	}

	ids := make([]string, len(seeded))
	for i, u := range seeded {
		ids[i] = u.ID
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		if err := tx.Model(&models.Post{}).Where("user_id IN ?", ids).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			for _, m := range []interface{}{&models.PostLike{}, &models.SavedPost{}, &models.HiddenPost{}, &models.PostMention{}, &models.Comment{}} {
				if err := tx.Delete(m, "post_id IN ?", postIDs).Error; err != nil {
					return err
				}
			}
			if err := tx.Unscoped().Delete(&models.Post{}, "id IN ?", postIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Follow{}, "follower_id IN ? OR followed_id IN ?", ids, ids).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.UserBlock{}, "blocker_id IN ? OR blocked_id IN ?", ids, ids).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Notification{}, "from_id IN ? OR to_id IN ?", ids, ids).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.User{}, "id IN ?", ids).Error
	})
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("seedpassword"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		if len(username) < 3 {
			username = username + "xyz"
		}
		if len(username) > 25 {
			username = username[:25]
		}
		username = fmt.Sprintf("%s%d", username, i)

		user := models.User{
			Username:      username,
			DisplayName:   gofakeit.Name(),
			Email:         fmt.Sprintf("%s@seed.onsekiz.example", username),
			PasswordHash:  &hashStr,
			Bio:           gofakeit.Sentence(8),
			EmailVerified: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := models.Post{
			UserID:  author.ID,
			Content: gofakeit.Sentence(rand.Intn(15) + 3),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}
		// Spread creation times over the last month
		created := time.Now().Add(-time.Duration(rand.Intn(30*24)) * time.Hour)
		if err := s.db.Model(&post).UpdateColumn("created_at", created).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		follower := users[rand.Intn(len(users))]
		followed := users[rand.Intn(len(users))]
		if follower.ID == followed.ID {
			continue
		}

		follow := models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Where(models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}).
				FirstOrCreate(&follow)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			if err := tx.Model(&models.User{}).Where("id = ?", follower.ID).
				UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", followed.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		err := s.db.Transaction(func(tx *gorm.DB) error {
			like := models.PostLike{UserID: user.ID, PostID: post.ID}
			res := tx.Where(models.PostLike{UserID: user.ID, PostID: post.ID}).FirstOrCreate(&like)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		comment := models.Comment{
			PostID:  post.ID,
			UserID:  user.ID,
			Content: gofakeit.Sentence(rand.Intn(10) + 2),
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&comment).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}
