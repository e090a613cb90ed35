package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/article39/artist-platform-backend/pkg/db/types"
	"github.com/article39/artist-platform-backend/pkg/types"
)

// Public website content. Every row carries the same id/timestamp columns so
// the content service can page and delete them generically.

type CarouselImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Image     string    `gorm:"column:image;not null" json:"image" validate:"required,url"`
	Selected  bool      `gorm:"column:selected;not null;default:false" json:"selected"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Story struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title      string    `gorm:"column:title;not null" json:"title" validate:"required,max=255"`
	CoverImage string    `gorm:"column:cover_image;not null;default:''" json:"cover_image" validate:"omitempty,url"`
	Author     string    `gorm:"column:author;not null;default:''" json:"author"`
	Content    string    `gorm:"column:content;not null" json:"content" validate:"required"`
	Tags       []string  `gorm:"column:tags;type:jsonb;serializer:json" json:"tags"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Event struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string          `gorm:"column:title;not null" json:"title" validate:"required,max=255"`
	CoverImage  string          `gorm:"column:cover_image;not null;default:''" json:"cover_image" validate:"omitempty,url"`
	Description string          `gorm:"column:description;not null;default:''" json:"description"`
	TicketPrice decimal.Decimal `gorm:"column:ticket_price;type:numeric(12,2);not null;default:0" json:"ticket_price"`
	Date        time.Time       `gorm:"column:date;not null" json:"date" validate:"required"`
	Location    string          `gorm:"column:location;not null;default:''" json:"location"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type TicketBooking struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventID         uuid.UUID `gorm:"column:event_id;type:uuid;not null;index" json:"event_id" validate:"required"`
	BuyerName       string    `gorm:"column:buyer_name;not null" json:"buyer_name" validate:"required,max=255"`
	BuyerEmail      string    `gorm:"column:buyer_email;not null" json:"buyer_email" validate:"required,email"`
	BuyerPhone      string    `gorm:"column:buyer_phone;not null" json:"buyer_phone" validate:"required,max=32"`
	NumberOfTickets int       `gorm:"column:number_of_tickets;not null;default:1" json:"number_of_tickets" validate:"gte=0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Exhibition struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string       `gorm:"column:title;not null" json:"title" validate:"required,max=255"`
	CoverImage  string       `gorm:"column:cover_image;not null;default:''" json:"cover_image" validate:"omitempty,url"`
	Description string       `gorm:"column:description;not null;default:''" json:"description"`
	Date        dbtypes.Date `gorm:"column:date;type:date;not null" json:"date"`
	FromTime    string       `gorm:"column:from_time;not null;default:''" json:"from_time"`
	ToTime      string       `gorm:"column:to_time;not null;default:''" json:"to_time"`
	Location    string       `gorm:"column:location;not null;default:''" json:"location"`
	Tags        []string     `gorm:"column:tags;type:jsonb;serializer:json" json:"tags"`
	Author      string       `gorm:"column:author;not null;default:''" json:"author"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Album struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string    `gorm:"column:title;not null" json:"title" validate:"required,max=255"`
	CoverImage    string    `gorm:"column:cover_image;not null;default:''" json:"cover_image" validate:"omitempty,url"`
	Genre         []string  `gorm:"column:genre;type:jsonb;serializer:json" json:"genre"`
	Category      []string  `gorm:"column:category;type:jsonb;serializer:json" json:"category"`
	Artist        []string  `gorm:"column:artist;type:jsonb;serializer:json" json:"artist"`
	NumberOfSongs int       `gorm:"column:number_of_songs;not null;default:0" json:"number_of_songs" validate:"gte=0"`
	Author        string    `gorm:"column:author;not null;default:''" json:"author"`
	Tags          []string  `gorm:"column:tags;type:jsonb;serializer:json" json:"tags"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Single struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string    `gorm:"column:title;not null" json:"title" validate:"required,max=255"`
	CoverImage    string    `gorm:"column:cover_image;not null;default:''" json:"cover_image" validate:"omitempty,url"`
	Genre         []string  `gorm:"column:genre;type:jsonb;serializer:json" json:"genre"`
	Category      []string  `gorm:"column:category;type:jsonb;serializer:json" json:"category"`
	Artist        string    `gorm:"column:artist;not null;default:''" json:"artist"`
	NumberOfSongs int       `gorm:"column:number_of_songs;not null;default:1" json:"number_of_songs"`
	Author        string    `gorm:"column:author;not null;default:''" json:"author"`
	Tags          []string  `gorm:"column:tags;type:jsonb;serializer:json" json:"tags"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Show struct {
	ID         uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title      string       `gorm:"column:title;not null" json:"title" validate:"required,max=255"`
	CoverImage string       `gorm:"column:cover_image;not null;default:''" json:"cover_image" validate:"omitempty,url"`
	VideoURL   string       `gorm:"column:video_url;not null;default:''" json:"video_url" validate:"omitempty,url"`
	Location   string       `gorm:"column:location;not null;default:''" json:"location"`
	Time       string       `gorm:"column:time;not null;default:''" json:"time"`
	Date       dbtypes.Date `gorm:"column:date;type:date;not null" json:"date"`
	CreatedAt  time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type ShowBookingInfo struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName  string            `gorm:"column:full_name;not null" json:"full_name" validate:"required,max=255"`
	Email     string            `gorm:"column:email;not null" json:"email" validate:"required,email"`
	Phone     string            `gorm:"column:phone;not null" json:"phone" validate:"required,max=32"`
	Dates     []types.DateRange `gorm:"column:dates;type:jsonb;serializer:json" json:"dates" validate:"required,min=1,dive"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ShowBookingInfo) TableName() string { return "show_booking_info" }

func (c *CarouselImage) BeforeCreate(*gorm.DB) error   { assignID(&c.ID); return nil }
func (s *Story) BeforeCreate(*gorm.DB) error           { assignID(&s.ID); return nil }
func (e *Event) BeforeCreate(*gorm.DB) error           { assignID(&e.ID); return nil }
func (t *TicketBooking) BeforeCreate(*gorm.DB) error   { assignID(&t.ID); return nil }
func (e *Exhibition) BeforeCreate(*gorm.DB) error      { assignID(&e.ID); return nil }
func (a *Album) BeforeCreate(*gorm.DB) error           { assignID(&a.ID); return nil }
func (s *Single) BeforeCreate(*gorm.DB) error          { assignID(&s.ID); return nil }
func (s *Show) BeforeCreate(*gorm.DB) error            { assignID(&s.ID); return nil }
func (s *ShowBookingInfo) BeforeCreate(*gorm.DB) error { assignID(&s.ID); return nil }

// assignID fills a zero id so inserts do not depend on a database default.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
