package roadmap

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/rwonjong94/anchormoms-web-sub002/core"
)

var (
	thinkingTypeTag  = "thinkingtype"
	thinkingTypeText = "{0} must be one of WMO, GT or GTA"

	subjectStageTag  = "subjectstage"
	subjectStageText = "{0} must be a known subject stage"

	editTag  = "edit"
	editText = "{0} must be one of thinkingType, thinkingLevel or subject"

	trackTag  = "track"
	trackText = "{0} must be a known track"
)

// RegisterValidators registers the roadmap validation tags and their messages.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(thinkingTypeTag, func(fl validator.FieldLevel) bool {
		return IsThinkingType(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, thinkingTypeTag, thinkingTypeText)

	_ = validate.RegisterValidation(subjectStageTag, func(fl validator.FieldLevel) bool {
		return IsSubjectStage(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, subjectStageTag, subjectStageText)

	_ = validate.RegisterValidation(editTag, func(fl validator.FieldLevel) bool {
		return Edit(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, editTag, editText)

	_ = validate.RegisterValidation(trackTag, func(fl validator.FieldLevel) bool {
		return Track(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, trackTag, trackText)
}

// CreateRequest contains information needed to create a new roadmap.
type CreateRequest struct {
	StudentID string       `json:"studentId" validate:"required,max=64"`
	Base      BaseSettings `json:"base"`
}

func (cr *CreateRequest) Validate(validate *validator.Validate) error {
	cr.StudentID = core.CleanString(cr.StudentID)
	cr.Base.clean()
	return validate.Struct(cr)
}

// ToggleRequest is a click on a group of an editable override.
type ToggleRequest struct {
	Edit Edit `json:"edit" validate:"required,edit"`
	GroupKey
}

func (tr *ToggleRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(tr)
}

// ValueRequest asks for the effective value of one group.
type ValueRequest struct {
	Track Track  `query:"track" json:"track" validate:"required,track"`
	Key   string `query:"key" json:"key" validate:"required"`
}

// GroupKey parses the requested key.
func (vr *ValueRequest) Validate(validate *validator.Validate) (GroupKey, error) {
	vr.Key = core.CleanString(vr.Key)
	if err := validate.Struct(vr); err != nil {
		return GroupKey{}, err
	}
	key, err := ParseGroupKey(vr.Key)
	if err != nil {
		return GroupKey{}, core.NewValidationError(err, core.FieldError{Field: "key", Error: err.Error()})
	}
	return key, nil
}

// WindowRequest selects the number of academic years to load.
type WindowRequest struct {
	Years int `json:"years" validate:"required,min=1"`
}

func (wr *WindowRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(wr)
}

// BaseRequest edits the base settings of a session.
type BaseRequest struct {
	Base BaseSettings `json:"base"`
}

func (br *BaseRequest) Validate(validate *validator.Validate) error {
	br.Base.clean()
	return validate.Struct(br)
}

func (doc *Document) Validate(validate *validator.Validate) error {
	doc.Base.clean()
	if err := validate.Struct(doc); err != nil {
		return err
	}

	var flds []core.FieldError
	check := func(field string, keys []GroupKey) {
		seen := make(map[GroupKey]bool, len(keys))
		for _, key := range keys {
			if seen[key] {
				flds = append(flds, core.FieldError{Field: field, Error: "duplicate group " + key.String()})
				return
			}
			seen[key] = true
		}
	}

	keys := make([]GroupKey, 0, len(doc.Extras.ThinkingTypes))
	for _, e := range doc.Extras.ThinkingTypes {
		keys = append(keys, GroupKey{YearOffset: e.YearOffset, GroupIndex: e.GroupIndex})
	}
	check("thinkingTypes", keys)

	keys = make([]GroupKey, 0, len(doc.Extras.ThinkingLevels))
	for _, e := range doc.Extras.ThinkingLevels {
		keys = append(keys, GroupKey{YearOffset: e.YearOffset, GroupIndex: e.GroupIndex})
	}
	check("thinkingLevels", keys)

	keys = make([]GroupKey, 0, len(doc.Extras.SubjectGroups))
	for _, e := range doc.Extras.SubjectGroups {
		keys = append(keys, GroupKey{YearOffset: e.YearOffset, GroupIndex: e.GroupIndex})
	}
	check("subjectGroups", keys)

	if len(flds) > 0 {
		return core.NewValidationError(ErrInvalidOverride, flds...)
	}
	return nil
}

func (b *BaseSettings) clean() {
	b.StartGrade = core.CleanString(b.StartGrade)
}
