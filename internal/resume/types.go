package resume

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// MaxDepth 是版本树的最大层数，合法的 depth 取值为 0..MaxDepth-1。
const MaxDepth = 5

// EducationEntry 表示一段教育经历。
type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Major  string `json:"major"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// ExperienceEntry 表示一段工作经历。
type ExperienceEntry struct {
	Company    string   `json:"company"`
	Title      string   `json:"title"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Highlights []string `json:"highlights"`
}

// ProjectEntry 表示一个项目经历。
type ProjectEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}

// SkillGroup 表示一组按类别聚合的技能。
type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// CertificationEntry 表示一项证书。
type CertificationEntry struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// Content 是某个节点的完整结构化内容视图。
// 列表字段保持插入顺序。
type Content struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`

	Education      []EducationEntry     `json:"education"`
	Experience     []ExperienceEntry    `json:"experience"`
	Projects       []ProjectEntry       `json:"projects"`
	Skills         []SkillGroup         `json:"skills"`
	Certifications []CertificationEntry `json:"certifications"`
}

// ContentUpdate 描述一次部分更新：nil 字段表示保持原值。
type ContentUpdate struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
	Website  *string `json:"website"`
	Summary  *string `json:"summary"`

	Education      *[]EducationEntry     `json:"education"`
	Experience     *[]ExperienceEntry    `json:"experience"`
	Projects       *[]ProjectEntry       `json:"projects"`
	Skills         *[]SkillGroup         `json:"skills"`
	Certifications *[]CertificationEntry `json:"certifications"`
}

// IsEmpty 在没有任何字段需要更新时返回 true。
func (u ContentUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Email == nil && u.Phone == nil &&
		u.Location == nil && u.Website == nil && u.Summary == nil &&
		u.Education == nil && u.Experience == nil && u.Projects == nil &&
		u.Skills == nil && u.Certifications == nil
}

func marshalSection(name string, v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return datatypes.JSON(data), nil
}

func unmarshalSection(name string, raw datatypes.JSON, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}
