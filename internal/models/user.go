package models

// DefaultImageFile is the avatar every account starts with.
const DefaultImageFile = "default.jpg"

// User represents a registered author.
type User struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"type:varchar(20);not null"`
	LastName  string `json:"last_name" gorm:"type:varchar(20);not null"`
	Username  string `json:"username" gorm:"uniqueIndex;type:varchar(20);not null"`
	Gender    string `json:"gender" gorm:"type:varchar(10);not null"`
	Email     string `json:"email" gorm:"uniqueIndex;type:varchar(100);not null"`
	ImageFile string `json:"image_file" gorm:"type:varchar(64);not null;default:default.jpg"`
	Password  string `json:"-" gorm:"type:varchar(60);not null"` // bcrypt hash, never the plaintext
}

func (User) TableName() string {
	return "user"
}
