package models

import "time"

// Collection names as stored by every driver.
const (
	CollProjects = "projects"
	CollSkills   = "skills"
	CollServices = "services"
	CollTimeline = "timeline"
	CollApproach = "approach"
	CollAbout    = "about"
	CollSettings = "settings"
	CollCVs      = "cvs"
	CollContacts = "contacts"
	CollUsers    = "users"
)

// Singleton document keys.
const (
	AboutKey    = "about"
	SettingsKey = "site"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	ProjectActive   = "active"
	ProjectArchived = "archived"
	ProjectDraft    = "draft"
)

const (
	ContactNew      = "new"
	ContactRead     = "read"
	ContactReplied  = "replied"
	ContactArchived = "archived"
)

var (
	ProjectStatuses = []string{ProjectActive, ProjectArchived, ProjectDraft}
	ContactStatuses = []string{ContactNew, ContactRead, ContactReplied, ContactArchived}
	SkillLevels     = []string{"Basic", "Intermediate", "Proficient", "Expert"}
	SkillCategories = []string{"Frontend", "Backend", "Design", "Tools", "Scripting", "Other"}
)

// Meta is embedded by every persisted entity.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Project struct {
	Meta
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"required,max=500"`
	FullDescription string   `json:"fullDescription" validate:"required"`
	Image           string   `json:"image" validate:"required,imageref"`
	Technologies    []string `json:"technologies"`
	Link            string   `json:"link" validate:"linkref"`
	Featured        bool     `json:"featured"`
	Order           int      `json:"order"`
	Status          string   `json:"status" validate:"oneof=active archived draft"`
}

type ProjectPatch struct {
	Title           *string   `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Description     *string   `json:"description,omitempty" validate:"omitnil,min=1,max=500"`
	FullDescription *string   `json:"fullDescription,omitempty" validate:"omitnil,min=1"`
	Image           *string   `json:"image,omitempty" validate:"omitnil,imageref"`
	Technologies    *[]string `json:"technologies,omitempty"`
	Link            *string   `json:"link,omitempty" validate:"omitnil,linkref"`
	Featured        *bool     `json:"featured,omitempty"`
	Order           *int      `json:"order,omitempty"`
	Status          *string   `json:"status,omitempty" validate:"omitnil,oneof=active archived draft"`
}

type Skill struct {
	Meta
	Name        string `json:"name" validate:"required,max=100"`
	Icon        string `json:"icon" validate:"required"`
	Level       string `json:"level" validate:"required,oneof=Basic Intermediate Proficient Expert"`
	Proficiency *int   `json:"proficiency" validate:"required,min=0,max=100"`
	Color       string `json:"color"`
	Category    string `json:"category" validate:"oneof=Frontend Backend Design Tools Scripting Other"`
	Featured    bool   `json:"featured"`
	Order       int    `json:"order"`
}

type SkillPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitnil,min=1,max=100"`
	Icon        *string `json:"icon,omitempty" validate:"omitnil,min=1"`
	Level       *string `json:"level,omitempty" validate:"omitnil,oneof=Basic Intermediate Proficient Expert"`
	Proficiency *int    `json:"proficiency,omitempty" validate:"omitnil,min=0,max=100"`
	Color       *string `json:"color,omitempty"`
	Category    *string `json:"category,omitempty" validate:"omitnil,oneof=Frontend Backend Design Tools Scripting Other"`
	Featured    *bool   `json:"featured,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

type Service struct {
	Meta
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=1000"`
	Icon        string `json:"icon" validate:"required"`
	Order       int    `json:"order"`
	Active      bool   `json:"active"`
}

type ServicePatch struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitnil,min=1,max=1000"`
	Icon        *string `json:"icon,omitempty" validate:"omitnil,min=1"`
	Order       *int    `json:"order,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type TimelineEntry struct {
	Meta
	Date        string `json:"date" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Icon        string `json:"icon" validate:"required"`
	Position    string `json:"position" validate:"oneof=left right"`
	Order       int    `json:"order"`
}

type TimelinePatch struct {
	Date        *string `json:"date,omitempty" validate:"omitnil,min=1"`
	Title       *string `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitnil,min=1"`
	Icon        *string `json:"icon,omitempty" validate:"omitnil,min=1"`
	Position    *string `json:"position,omitempty" validate:"omitnil,oneof=left right"`
	Order       *int    `json:"order,omitempty"`
}

type Approach struct {
	Meta
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=1000"`
	Icon        string `json:"icon" validate:"required"`
	Order       int    `json:"order"`
	Featured    bool   `json:"featured"`
	Active      bool   `json:"active"`
}

type ApproachPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitnil,min=1,max=1000"`
	Icon        *string `json:"icon,omitempty" validate:"omitnil,min=1"`
	Order       *int    `json:"order,omitempty"`
	Featured    *bool   `json:"featured,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type SocialLinks struct {
	Github    string `json:"github,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
	Whatsapp  string `json:"whatsapp,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

type About struct {
	Meta
	Name              string      `json:"name"`
	Title             string      `json:"title"`
	Subtitle          string      `json:"subtitle"`
	ProfileImage      string      `json:"profileImage"`
	Bio               []string    `json:"bio"`
	Philosophy        string      `json:"philosophy"`
	YearsExperience   int         `json:"yearsExperience"`
	ProjectsCompleted int         `json:"projectsCompleted"`
	LinesOfCode       int         `json:"linesOfCode"`
	SocialLinks       SocialLinks `json:"socialLinks"`
}

type AboutPatch struct {
	Name              *string      `json:"name,omitempty" validate:"omitnil,min=1"`
	Title             *string      `json:"title,omitempty" validate:"omitnil,min=1"`
	Subtitle          *string      `json:"subtitle,omitempty"`
	ProfileImage      *string      `json:"profileImage,omitempty" validate:"omitnil,imageref"`
	Bio               *[]string    `json:"bio,omitempty"`
	Philosophy        *string      `json:"philosophy,omitempty"`
	YearsExperience   *int         `json:"yearsExperience,omitempty" validate:"omitnil,min=0"`
	ProjectsCompleted *int         `json:"projectsCompleted,omitempty" validate:"omitnil,min=0"`
	LinesOfCode       *int         `json:"linesOfCode,omitempty" validate:"omitnil,min=0"`
	SocialLinks       *SocialLinks `json:"socialLinks,omitempty"`
}

const (
	DefaultMaintenanceTitle   = "Under Maintenance"
	DefaultMaintenanceMessage = "Site is currently under maintenance. Please check back later."
)

type SiteSettings struct {
	Meta
	IsActive           bool   `json:"isActive"`
	MaintenanceTitle   string `json:"maintenanceTitle"`
	MaintenanceMessage string `json:"maintenanceMessage"`
}

type SiteSettingsPatch struct {
	IsActive           *bool   `json:"isActive,omitempty"`
	MaintenanceTitle   *string `json:"maintenanceTitle,omitempty"`
	MaintenanceMessage *string `json:"maintenanceMessage,omitempty"`
}

type CV struct {
	Meta
	Title           string `json:"title"`
	GoogleDriveLink string `json:"googleDriveLink" validate:"required,httpurl"`
	Description     string `json:"description"`
	UploadedBy      string `json:"uploadedBy"`
	IsActive        bool   `json:"isActive"`
	ViewCount       int64  `json:"viewCount"`
}

type Contact struct {
	Meta
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Subject   string `json:"subject" validate:"required,min=3,max=200"`
	Message   string `json:"message" validate:"required,min=10,max=2000"`
	Status    string `json:"status" validate:"oneof=new read replied archived"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
}

type User struct {
	Meta
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
}

// PublicUser strips the password hash.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

type MetricSample struct {
	CapturedAt        time.Time `json:"capturedAt"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	Goroutines        int       `json:"goroutines"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	DiskTotalBytes    int64     `json:"diskTotalBytes"`
	DiskUsedBytes     int64     `json:"diskUsedBytes"`
	ProcessCPULoad    float64   `json:"processCpuLoad"`
	SystemCPULoad     float64   `json:"systemCpuLoad"`
}
