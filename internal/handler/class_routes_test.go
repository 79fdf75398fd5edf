package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/dto"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/service"
)

func TestSettingsRoutesRequireTeacherToWrite(t *testing.T) {
	h := setupHistoryApp(t)

	resp, payload := h.do(t, http.MethodGet, classPath("/settings"), "student", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var settings models.ClassSettings
	require.NoError(t, json.Unmarshal(payload.Data, &settings))
	require.Equal(t, 6, settings.NumberOfPeriods)

	resp, _ = h.do(t, http.MethodPut, classPath("/settings"), "student", `{"numberOfPeriods":7}`)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, payload = h.do(t, http.MethodPut, classPath("/settings"), "teacher", `{"numberOfPeriods":7,"schoolDays":[1,2,3,4,5]}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(payload.Data, &settings))
	require.Equal(t, 7, settings.NumberOfPeriods)

	resp, _ = h.do(t, http.MethodPut, classPath("/settings"), "teacher", `{"numberOfPeriods":7,"timezone":"Nowhere/Void"}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestTimetableAndScheduleRoutes(t *testing.T) {
	h := setupHistoryApp(t)

	resp, _ := h.do(t, http.MethodPut, classPath("/timetable/fixed"), "teacher", `{"slots":[]}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, payload := h.do(t, http.MethodPut, classPath("/timetable/fixed"), "teacher",
		`{"slots":[{"dayOfWeek":1,"period":1,"subjectId":"s1"},{"dayOfWeek":2,"period":1,"subjectId":"s2"}]}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var slots []models.FixedSlot
	require.NoError(t, json.Unmarshal(payload.Data, &slots))
	require.Len(t, slots, 2)

	resp, _ = h.do(t, http.MethodPost, classPath("/daily-announcements/apply-schedule"), "student", `{"from":"2026-10-12","days":7}`)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, payload = h.do(t, http.MethodPost, classPath("/daily-announcements/apply-schedule"), "teacher", `{"from":"2026-10-12","days":7}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result service.PropagationResult
	require.NoError(t, json.Unmarshal(payload.Data, &result))
	require.Equal(t, 5, result.Count)

	resp, payload = h.do(t, http.MethodGet, classPath("/daily-announcements?from=2026-10-13&to=2026-10-13"), "student", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var days []models.DailyAnnouncement
	require.NoError(t, json.Unmarshal(payload.Data, &days))
	require.Len(t, days, 1)
	require.Equal(t, "s2", *days[0].Periods[0].SubjectID)

	resp, payload = h.do(t, http.MethodGet, classPath("/history?limit=1"), "teacher", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var entries []dto.ActionLogResponse
	require.NoError(t, json.Unmarshal(payload.Data, &entries))
	require.Equal(t, audit.KindScheduleApplyFuture, entries[0].Action)
	require.False(t, entries[0].Reversible)

	resp, _ = h.do(t, http.MethodPost, classPath("/history/"+entries[0].ID+"/rollback"), "teacher", "")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPut, classPath("/daily-announcements/2026-10-13"), "teacher", `{"message":"Field trip","isCustomized":true}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = h.do(t, http.MethodPost, classPath("/daily-announcements/reset"), "teacher", `{"from":"2026-10-14"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(payload.Data, &result))
	require.Equal(t, []string{"2026-10-14", "2026-10-15", "2026-10-16"}, result.Dates)
}

func TestInquiryRoutes(t *testing.T) {
	h := setupHistoryApp(t)

	resp, payload := h.do(t, http.MethodPost, classPath("/inquiries"), "student", `{"title":"Homework","body":"Which pages?"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var inquiry models.Inquiry
	require.NoError(t, json.Unmarshal(payload.Data, &inquiry))
	require.Equal(t, "student-1", inquiry.AuthorID)

	resp, payload = h.do(t, http.MethodPost, classPath("/inquiries/"+inquiry.ID+"/messages"), "teacher", `{"body":"Pages 10 to 12"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var message models.InquiryMessage
	require.NoError(t, json.Unmarshal(payload.Data, &message))

	resp, _ = h.do(t, http.MethodPatch, classPath("/inquiries/"+inquiry.ID+"/status"), "student", `{"status":"resolved"}`)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPatch, classPath("/inquiries/"+inquiry.ID+"/status"), "teacher", `{"status":"resolved"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodDelete, classPath("/inquiries/other/messages/"+message.ID), "teacher", "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, http.MethodDelete, classPath("/inquiries/"+inquiry.ID+"/messages/"+message.ID), "teacher", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = h.do(t, http.MethodGet, classPath("/inquiries/"+inquiry.ID+"/messages"), "student", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var thread []models.InquiryMessage
	require.NoError(t, json.Unmarshal(payload.Data, &thread))
	require.Empty(t, thread)
}
