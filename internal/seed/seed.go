// Package seed fills a development database with fake sellers, buyers,
// listings and conversations. It is intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"campusnest/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Locations are the neighbourhoods offered by the web client's filter.
var Locations = []string{
	"Campus Gate", "Asherifa", "Damico", "Ede Road", "Moremi Estate",
	"Ibadan Road", "Oduduwa Estate", "Mayfair", "Parakin",
}

var studentLevels = []string{"Part 1", "Part 2", "Part 3", "Part 4", "Part 5", "Part 6", "Masters"}

var buyerOpeners = []string{
	"Hi, is this still available?",
	"Is the price negotiable?",
	"Can I come for an inspection this weekend?",
	"Does the place have constant water and light?",
	"How far is it from the school gate?",
}

// Options configure how much data the Seeder creates.
type Options struct {
	Sellers           int
	Buyers            int
	ListingsPerSeller int
	ChatsPerListing   int
	MessagesPerChat   int
	// Seed makes runs reproducible.
	Seed int64
	// SkipBcrypt stores a cheap hash; seeded accounts still log in with DefaultPassword.
	SkipBcrypt bool
}

// DefaultOptions is a small marketplace suitable for local development.
func DefaultOptions() Options {
	return Options{
		Sellers:           5,
		Buyers:            20,
		ListingsPerSeller: 3,
		ChatsPerListing:   2,
		MessagesPerChat:   4,
		Seed:              42,
	}
}

// Result lists what a run created.
type Result struct {
	Sellers  []models.User
	Buyers   []models.User
	Listings []models.Listing
	Chats    []models.Chat
	Messages int
}

// Seeder writes fake marketplace data through GORM.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, faker: gofakeit.New(opts.Seed)}
}

// Run creates sellers, buyers, listings and chats with messages.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	log.Printf("🌱 Seeding %d sellers, %d buyers...", s.opts.Sellers, s.opts.Buyers)

	hash, err := s.passwordHash()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	db := s.db.WithContext(ctx)

	if res.Sellers, err = s.createUsers(db, models.RoleSeller, s.opts.Sellers, hash); err != nil {
		return nil, fmt.Errorf("failed to create sellers: %w", err)
	}
	if res.Buyers, err = s.createUsers(db, models.RoleBuyer, s.opts.Buyers, hash); err != nil {
		return nil, fmt.Errorf("failed to create buyers: %w", err)
	}
	log.Printf("✓ %d users created", len(res.Sellers)+len(res.Buyers))

	if res.Listings, err = s.createListings(db, res.Sellers); err != nil {
		return nil, fmt.Errorf("failed to create listings: %w", err)
	}
	log.Printf("✓ %d listings created", len(res.Listings))

	if res.Chats, res.Messages, err = s.createChats(db, res.Listings, res.Buyers); err != nil {
		return nil, fmt.Errorf("failed to create chats: %w", err)
	}
	log.Printf("✓ %d chats with %d messages created", len(res.Chats), res.Messages)

	return res, nil
}

// ClearAll removes every non-admin account and all marketplace data.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{
			&models.Message{}, &models.Chat{}, &models.Notification{},
			&models.Report{}, &models.AdminLog{}, &models.Listing{},
		} {
			if err := all.Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Where("is_admin = ?", false).Delete(&models.User{}).Error
	})
}

func (s *Seeder) passwordHash() (string, error) {
	cost := bcrypt.DefaultCost
	if s.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	return string(hash), nil
}

func (s *Seeder) createUsers(db *gorm.DB, role models.UserRole, count int, hash string) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		u := models.User{
			Name:       first + " " + last,
			Email:      fmt.Sprintf("%s.%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), role, i),
			Password:   hash,
			Role:       role,
			ProfilePic: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
		}
		if role == models.RoleSeller {
			u.BVNVerified = true
		} else {
			u.IsStudent = true
			u.StudentLevel = s.faker.RandomString(studentLevels)
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) createListings(db *gorm.DB, sellers []models.User) ([]models.Listing, error) {
	listings := make([]models.Listing, 0, len(sellers)*s.opts.ListingsPerSeller)
	for _, seller := range sellers {
		for i := 0; i < s.opts.ListingsPerSeller; i++ {
			// Prices are yearly rents in naira, rounded to the thousand.
			price := float64(s.faker.Number(80, 600)) * 1000
			listings = append(listings, models.Listing{
				SellerID:    seller.ID,
				Address:     fmt.Sprintf("%d %s", s.faker.Number(1, 120), s.faker.StreetName()),
				Location:    s.faker.RandomString(Locations),
				Price:       price,
				Description: s.faker.Paragraph(1, 3, 12, " "),
				Images: []string{
					fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID()),
					fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID()),
				},
				Status: models.ListingStatusActive,
				Views:  int64(s.faker.Number(0, 99)),
			})
		}
	}
	if len(listings) == 0 {
		return listings, nil
	}
	if err := db.Create(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *Seeder) createChats(db *gorm.DB, listings []models.Listing, buyers []models.User) ([]models.Chat, int, error) {
	if len(buyers) == 0 {
		return nil, 0, nil
	}
	var (
		chats    []models.Chat
		messages int
	)
	for li, listing := range listings {
		n := min(s.opts.ChatsPerListing, len(buyers))
		for c := 0; c < n; c++ {
			buyer := buyers[(li+c)%len(buyers)]
			chat := models.Chat{ListingID: listing.ID, BuyerID: buyer.ID, SellerID: listing.SellerID}
			if err := db.Create(&chat).Error; err != nil {
				return nil, 0, err
			}

			msgs := s.conversation(chat, s.opts.MessagesPerChat)
			if len(msgs) > 0 {
				if err := db.Create(&msgs).Error; err != nil {
					return nil, 0, err
				}
			}
			messages += len(msgs)
			chats = append(chats, chat)
		}
	}
	return chats, messages, nil
}

// conversation alternates buyer and seller, starting with the buyer.
func (s *Seeder) conversation(chat models.Chat, count int) []models.Message {
	start := time.Now().Add(-time.Duration(s.faker.Number(1, 72)) * time.Hour)
	msgs := make([]models.Message, 0, count)
	for i := 0; i < count; i++ {
		m := models.Message{
			ChatID:    chat.ID,
			SenderID:  chat.BuyerID,
			CreatedAt: start.Add(time.Duration(i) * 7 * time.Minute),
		}
		switch {
		case i == 0:
			m.Content = s.faker.RandomString(buyerOpeners)
		case i%2 == 1:
			m.SenderID = chat.SellerID
			m.Content = s.faker.Sentence(s.faker.Number(4, 12))
		default:
			m.Content = s.faker.Question()
		}
		msgs = append(msgs, m)
	}
	return msgs
}
