package resume

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShengNW/interviewer/internal/database"
)

// ContentRepository 以节点 ID 为键管理结构化简历内容。
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository 构造 ContentRepository。
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// WithTx 返回绑定到给定事务的副本。
func (r *ContentRepository) WithTx(tx *gorm.DB) *ContentRepository {
	return &ContentRepository{db: tx}
}

// CreateEmpty 为节点创建一条空内容记录。
func (r *ContentRepository) CreateEmpty(ctx context.Context, resumeID string) error {
	record := database.ResumeContent{
		ID:       uuid.NewString(),
		ResumeID: resumeID,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return storageErr("create content", err)
	}
	return nil
}

// Get 返回节点的内容视图；没有内容记录时返回 (nil, nil)。
func (r *ContentRepository) Get(ctx context.Context, resumeID string) (*Content, error) {
	var record database.ResumeContent
	err := r.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, storageErr("query content", err)
	}
	return decodeContent(&record)
}

// Upsert 仅把 update 中给出的字段写入内容记录，记录不存在时先创建。
func (r *ContentRepository) Upsert(ctx context.Context, resumeID string, update ContentUpdate) error {
	var record database.ResumeContent
	err := r.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = database.ResumeContent{
			ID:       uuid.NewString(),
			ResumeID: resumeID,
		}
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			return storageErr("create content", err)
		}
	case err != nil:
		return storageErr("query content", err)
	}

	updates, err := contentUpdates(update)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&record).Updates(updates).Error; err != nil {
		return storageErr("update content", err)
	}
	return nil
}

// Copy 把 fromID 的内容逐字段复制为 toID 的新记录（值拷贝，排除标识列）。
// 仅供 fork 使用；源节点没有内容时写入空记录。
func (r *ContentRepository) Copy(ctx context.Context, fromID, toID string) error {
	var src database.ResumeContent
	err := r.db.WithContext(ctx).
		Where("resume_id = ?", fromID).
		First(&src).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.CreateEmpty(ctx, toID)
	case err != nil:
		return storageErr("query content", err)
	}

	dst := database.ResumeContent{
		ID:             uuid.NewString(),
		ResumeID:       toID,
		FullName:       src.FullName,
		Email:          src.Email,
		Phone:          src.Phone,
		Location:       src.Location,
		Website:        src.Website,
		Summary:        src.Summary,
		Education:      cloneJSON(src.Education),
		Experience:     cloneJSON(src.Experience),
		Projects:       cloneJSON(src.Projects),
		Skills:         cloneJSON(src.Skills),
		Certifications: cloneJSON(src.Certifications),
	}
	if err := r.db.WithContext(ctx).Create(&dst).Error; err != nil {
		return storageErr("copy content", err)
	}
	return nil
}

func cloneJSON(raw []byte) []byte {
	if raw == nil {
		return nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

func decodeContent(record *database.ResumeContent) (*Content, error) {
	content := &Content{
		FullName: record.FullName,
		Email:    record.Email,
		Phone:    record.Phone,
		Location: record.Location,
		Website:  record.Website,
		Summary:  record.Summary,
	}
	if err := unmarshalSection("education", record.Education, &content.Education); err != nil {
		return nil, err
	}
	if err := unmarshalSection("experience", record.Experience, &content.Experience); err != nil {
		return nil, err
	}
	if err := unmarshalSection("projects", record.Projects, &content.Projects); err != nil {
		return nil, err
	}
	if err := unmarshalSection("skills", record.Skills, &content.Skills); err != nil {
		return nil, err
	}
	if err := unmarshalSection("certifications", record.Certifications, &content.Certifications); err != nil {
		return nil, err
	}
	return content, nil
}

func contentUpdates(update ContentUpdate) (map[string]any, error) {
	updates := map[string]any{}
	if update.FullName != nil {
		updates["full_name"] = *update.FullName
	}
	if update.Email != nil {
		updates["email"] = *update.Email
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.Location != nil {
		updates["location"] = *update.Location
	}
	if update.Website != nil {
		updates["website"] = *update.Website
	}
	if update.Summary != nil {
		updates["summary"] = *update.Summary
	}
	if update.Education != nil {
		raw, err := marshalSection("education", *update.Education)
		if err != nil {
			return nil, err
		}
		updates["education"] = raw
	}
	if update.Experience != nil {
		raw, err := marshalSection("experience", *update.Experience)
		if err != nil {
			return nil, err
		}
		updates["experience"] = raw
	}
	if update.Projects != nil {
		raw, err := marshalSection("projects", *update.Projects)
		if err != nil {
			return nil, err
		}
		updates["projects"] = raw
	}
	if update.Skills != nil {
		raw, err := marshalSection("skills", *update.Skills)
		if err != nil {
			return nil, err
		}
		updates["skills"] = raw
	}
	if update.Certifications != nil {
		raw, err := marshalSection("certifications", *update.Certifications)
		if err != nil {
			return nil, err
		}
		updates["certifications"] = raw
	}
	return updates, nil
}
