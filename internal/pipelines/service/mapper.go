package service

import (
	"fmt"
	"time"

	"practice_portal_backend/internal/pipelines/domain"
	"practice_portal_backend/internal/pipelines/transport"
	"practice_portal_backend/platform/apperr"
)

func toProjectTypeResponse(pt domain.ProjectType) transport.ProjectTypeResponse {
	resp := transport.ProjectTypeResponse{
		ID:        pt.ID,
		Name:      pt.Name,
		CreatedAt: pt.CreatedAt.Format(time.RFC3339),
	}
	for _, st := range pt.Stages {
		resp.Stages = append(resp.Stages, transport.StageResponse{
			ID:              st.ID,
			Name:            st.Name,
			SortOrder:       st.SortOrder,
			MaxInstanceTime: st.MaxInstanceTime,
			MaxTotalTime:    st.MaxTotalTime,
			StageApprovalID: st.StageApprovalID,
			CanBeFinalStage: st.CanBeFinalStage,
		})
	}
	for _, cr := range pt.Reasons {
		resp.Reasons = append(resp.Reasons, toChangeReasonResponse(cr))
	}
	if pt.Service != nil {
		resp.Service = &transport.ConnectedServiceResponse{ID: pt.Service.ID, Name: pt.Service.Name}
	}
	return resp
}

func toChangeReasonResponse(cr domain.ChangeReason) transport.ChangeReasonResponse {
	resp := transport.ChangeReasonResponse{
		ID:              cr.ID,
		Label:           cr.Label,
		StageApprovalID: cr.StageApprovalID,
		FromStageIDs:    cr.FromStageIDs,
	}
	for _, f := range cr.CustomFields {
		resp.CustomFields = append(resp.CustomFields, transport.CustomFieldResponse{
			ID:        f.ID,
			Label:     f.Label,
			Type:      string(f.Type),
			Required:  f.Required,
			Options:   f.Options,
			Logic:     f.Logic,
			SortOrder: f.SortOrder,
		})
	}
	return resp
}

func toStageApprovalResponse(sa domain.StageApproval) (transport.StageApprovalResponse, error) {
	resp := transport.StageApprovalResponse{
		ID:            sa.ID,
		ProjectTypeID: sa.ProjectTypeID,
		Name:          sa.Name,
	}
	for _, f := range sa.Fields {
		expected, err := domain.MarshalExpected(f.Expected)
		if err != nil {
			return transport.StageApprovalResponse{}, fmt.Errorf("encode expected value for field %s: %w", f.ID, err)
		}
		resp.Fields = append(resp.Fields, transport.ApprovalFieldResponse{
			ID:            f.ID,
			Label:         f.Label,
			Type:          string(f.Type),
			Required:      f.Required,
			Options:       f.Options,
			ExpectedValue: expected,
			Logic:         f.Logic,
			SortOrder:     f.SortOrder,
		})
	}
	return resp, nil
}

// fieldFromRequest converts an approval field request into its domain
// form, resolving the flat expected-value wire shape into the typed
// contract for the field's type.
func fieldFromRequest(fr transport.ApprovalFieldRequest) (domain.StageApprovalField, error) {
	field := domain.StageApprovalField{
		Label:     fr.Label,
		Type:      domain.FieldType(fr.Type),
		Required:  fr.Required,
		Options:   fr.Options,
		Logic:     fr.Logic,
		SortOrder: fr.SortOrder,
	}
	if fr.Expected == nil {
		return field, nil
	}

	ev := fr.Expected
	switch field.Type {
	case domain.FieldBoolean:
		if ev.Boolean == nil {
			return field, apperr.Validation("boolean field expected value requires boolean")
		}
		field.Expected = domain.ExpectedBoolean{Value: *ev.Boolean}
	case domain.FieldNumber:
		if ev.Comparison == nil || ev.Number == nil {
			return field, apperr.Validation("number field expected value requires comparison and number")
		}
		field.Expected = domain.ExpectedNumber{
			Comparison: domain.ComparisonType(*ev.Comparison),
			Value:      *ev.Number,
		}
	case domain.FieldSingleSelect, domain.FieldMultiSelect:
		if len(ev.Values) == 0 {
			return field, apperr.Validation("select field expected value requires values")
		}
		field.Expected = domain.ExpectedSelection{Values: ev.Values}
	case domain.FieldDate:
		if ev.DateComparison == nil || ev.Date == nil {
			return field, apperr.Validation("date field expected value requires dateComparison and date")
		}
		field.Expected = domain.ExpectedDate{
			Comparison: domain.DateComparisonType(*ev.DateComparison),
			Date:       *ev.Date,
			DateEnd:    ev.DateEnd,
		}
	default:
		return field, apperr.Validation(fmt.Sprintf("field type %q does not accept an expected value", fr.Type))
	}
	return field, nil
}

func responsesFromRequest(items []transport.FieldResponseRequest) map[string]domain.FieldResponse {
	responses := make(map[string]domain.FieldResponse, len(items))
	for _, item := range items {
		responses[item.FieldID.String()] = domain.FieldResponse{
			FieldID:    item.FieldID,
			Boolean:    item.Boolean,
			Number:     item.Number,
			Text:       item.Text,
			Selections: item.Selections,
			Date:       item.Date,
		}
	}
	return responses
}
