package actions

import (
	"github.com/mitchellh/mapstructure"

	"github.com/wantokjobs/jean/internal/models"
)

// Patches carry partial updates collected by conversational flows. Nil
// fields are left untouched. The mapstructure tags line up with the
// flow step keys so collected answers decode straight into them.

type JobseekerPatch struct {
	Headline         *string                 `mapstructure:"headline"`
	Location         *string                 `mapstructure:"location"`
	Phone            *string                 `mapstructure:"phone"`
	Bio              *string                 `mapstructure:"bio"`
	Skills           []string                `mapstructure:"skills"`
	DesiredJobType   *string                 `mapstructure:"desired_job_type"`
	DesiredSalaryMin *int                    `mapstructure:"desired_salary_min"`
	DesiredSalaryMax *int                    `mapstructure:"desired_salary_max"`
	WorkHistory      []models.WorkEntry      `mapstructure:"work_history"`
	Education        []models.EducationEntry `mapstructure:"education"`
	Certifications   *string                 `mapstructure:"certifications"`
	CVURL            *string                 `mapstructure:"cv_url"`
}

func (p *JobseekerPatch) applyTo(dst *models.JobseekerProfile) {
	setString(&dst.Headline, p.Headline)
	setString(&dst.Location, p.Location)
	setString(&dst.Phone, p.Phone)
	setString(&dst.Bio, p.Bio)
	if p.Skills != nil {
		dst.Skills = p.Skills
	}
	setString(&dst.DesiredJobType, p.DesiredJobType)
	if p.DesiredSalaryMin != nil {
		dst.DesiredSalaryMin = p.DesiredSalaryMin
	}
	if p.DesiredSalaryMax != nil {
		dst.DesiredSalaryMax = p.DesiredSalaryMax
	}
	if p.WorkHistory != nil {
		dst.WorkHistory = p.WorkHistory
	}
	if p.Education != nil {
		dst.Education = p.Education
	}
	setString(&dst.Certifications, p.Certifications)
	setString(&dst.CVURL, p.CVURL)
}

type EmployerPatch struct {
	CompanyName *string `mapstructure:"company_name"`
	Industry    *string `mapstructure:"industry"`
	CompanySize *string `mapstructure:"company_size"`
	Location    *string `mapstructure:"location"`
	Website     *string `mapstructure:"website"`
	Description *string `mapstructure:"description"`
}

func (p *EmployerPatch) applyTo(dst *models.EmployerProfile) {
	setString(&dst.CompanyName, p.CompanyName)
	setString(&dst.Industry, p.Industry)
	setString(&dst.CompanySize, p.CompanySize)
	setString(&dst.Location, p.Location)
	setString(&dst.Website, p.Website)
	setString(&dst.Description, p.Description)
}

type PrefsPatch struct {
	AutoPost        *string `mapstructure:"auto_post"`
	DefaultLocation *string `mapstructure:"default_location"`
	DefaultCategory *string `mapstructure:"default_category"`
	NotifyOnApply   *bool   `mapstructure:"notify_on_application"`
}

func (p *PrefsPatch) applyTo(dst *models.EmployerPrefs) {
	setString(&dst.AutoPost, p.AutoPost)
	setString(&dst.DefaultLocation, p.DefaultLocation)
	setString(&dst.DefaultCategory, p.DefaultCategory)
	if p.NotifyOnApply != nil {
		dst.NotifyOnApply = *p.NotifyOnApply
	}
}

// JobPatch decodes the answers from the post-job flow.
type JobPatch struct {
	Title           string   `mapstructure:"title"`
	Description     string   `mapstructure:"description"`
	Requirements    string   `mapstructure:"requirements"`
	Location        string   `mapstructure:"location"`
	JobType         string   `mapstructure:"job_type"`
	ExperienceLevel string   `mapstructure:"experience_level"`
	CategorySlug    string   `mapstructure:"category_slug"`
	Skills          []string `mapstructure:"skills"`
	SalaryMin       *int     `mapstructure:"salary_min"`
	SalaryMax       *int     `mapstructure:"salary_max"`
	Deadline        string   `mapstructure:"application_deadline"`
}

func (p *JobPatch) Job() *models.Job {
	return &models.Job{
		Title:           p.Title,
		Description:     p.Description,
		Requirements:    p.Requirements,
		Location:        p.Location,
		JobType:         p.JobType,
		ExperienceLevel: p.ExperienceLevel,
		CategorySlug:    p.CategorySlug,
		Skills:          p.Skills,
		SalaryMin:       p.SalaryMin,
		SalaryMax:       p.SalaryMax,
		Deadline:        p.Deadline,
	}
}

// RulePatch decodes the answers from the auto-apply setup flow.
type RulePatch struct {
	Keywords   []string `mapstructure:"keywords"`
	Categories []string `mapstructure:"categories"`
	Locations  []string `mapstructure:"locations"`
	JobTypes   []string `mapstructure:"job_types"`
	MinSalary  *int     `mapstructure:"min_salary"`
	MaxDaily   int      `mapstructure:"max_daily"`
}

func (p *RulePatch) Rule() *models.AutoApplyRule {
	return &models.AutoApplyRule{
		Keywords:   p.Keywords,
		Categories: p.Categories,
		Locations:  p.Locations,
		JobTypes:   p.JobTypes,
		MinSalary:  p.MinSalary,
		MaxDaily:   p.MaxDaily,
	}
}

// Decode maps flow-collected answers onto a patch struct. Numbers that
// crossed a JSON round-trip arrive as float64, so decoding is weakly
// typed.
func Decode(collected map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(collected)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
