package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/account"
	"github.com/trezcool/maoni/core/notify"
	"github.com/trezcool/maoni/core/review"
)

type reviewApi struct {
	accountSvc *account.Service
	reviewSvc  *review.Service
	notifySvc  *notify.Service
}

func registerReviewAPI(g *echo.Group, jwt echo.MiddlewareFunc, gs guards, opts *Options) {
	api := reviewApi{
		accountSvc: opts.AccountSvc,
		reviewSvc:  opts.ReviewSvc,
		notifySvc:  opts.NotifySvc,
	}

	// teacher endpoints
	tg := g.Group("", jwt, gs.teacher)
	tg.POST("/topics", api.createTopic)
	tg.GET("/topics", api.queryOwnTopics)
	tg.PUT("/topics/:id", api.updateTopic)
	tg.DELETE("/topics/:id", api.destroyTopic)
	tg.GET("/feedback", api.queryReceivedFeedback)
	tg.GET("/ratings/monthly", api.ownMonthlyRatings)

	// student endpoints
	sg := g.Group("", jwt, gs.student)
	sg.GET("/reviews", api.queryReviewableTopics)
	sg.GET("/reviews/submitted", api.querySubmittedTopics)
	sg.POST("/feedback", api.submitFeedback)
	sg.PUT("/feedback/:id", api.editFeedback)

	// admin endpoints
	adm := g.Group("", jwt, gs.admin)
	adm.GET("/students", api.queryStudents)
	adm.GET("/students/:id", api.retrieveStudent)
	adm.GET("/students/:id/feedback", api.queryStudentFeedback)
	adm.GET("/teachers/:id/students", api.queryTeacherStudents)
	adm.GET("/teachers/:id/ratings", api.teacherMonthlyRatings)
	adm.GET("/ratings", api.allTeacherRatings)
	adm.POST("/teachers", api.addTeacher)
	adm.DELETE("/teachers/:id", api.destroyTeacher)
	adm.GET("/notify/whatsapp", api.whatsAppLink)
	adm.GET("/notify/email", api.mailtoLink)
}

// Teacher handlers

func (api *reviewApi) createTopic(ctx echo.Context) error {
	var data review.NewTopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTopic")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	teacher, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	topic, err := api.reviewSvc.CreateTopic(ctx.Request().Context(), teacher, data)
	if err != nil {
		return errors.Wrap(err, "creating topic")
	}
	return ctx.JSON(http.StatusCreated, topic)
}

func (api *reviewApi) queryOwnTopics(ctx echo.Context) error {
	teacher, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	topics, err := api.reviewSvc.TopicsByTeacher(ctx.Request().Context(), teacher.ID)
	if err != nil {
		return errors.Wrap(err, "querying topics")
	}
	if topics == nil {
		topics = []review.Topic{}
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *reviewApi) updateTopic(ctx echo.Context) error {
	var data review.UpdateTopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTopic")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	teacher, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	topic, err := api.reviewSvc.UpdateTopic(ctx.Request().Context(), teacher.ID, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == review.ErrTopicNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating topic")
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *reviewApi) destroyTopic(ctx echo.Context) error {
	teacher, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	res, err := api.reviewSvc.DeleteTopicCascade(ctx.Request().Context(), teacher.ID, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == review.ErrTopicNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting topic")
	}
	return ctx.JSON(http.StatusOK, newCascadeResponse(res))
}

func (api *reviewApi) queryReceivedFeedback(ctx echo.Context) error {
	teacher, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	fbs, err := api.reviewSvc.FeedbackForTeacher(ctx.Request().Context(), teacher.ID)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	if fbs == nil {
		fbs = []review.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *reviewApi) ownMonthlyRatings(ctx echo.Context) error {
	teacher, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	ratings, err := api.reviewSvc.MonthlyRatings(ctx.Request().Context(), teacher.ID)
	if err != nil {
		return errors.Wrap(err, "querying monthly ratings")
	}
	return ctx.JSON(http.StatusOK, ratings)
}

// Student handlers

func (api *reviewApi) queryReviewableTopics(ctx echo.Context) error {
	student, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	topics, err := api.reviewSvc.TopicsForStudent(ctx.Request().Context(), student)
	if err != nil {
		// surfaced to the log; the view falls back to an empty list
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "querying reviewable topics"))
		return ctx.JSON(http.StatusOK, []review.Topic{})
	}
	if topics == nil {
		topics = []review.Topic{}
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *reviewApi) querySubmittedTopics(ctx echo.Context) error {
	student, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	set, err := api.reviewSvc.SubmittedTopics(ctx.Request().Context(), student)
	if err != nil {
		return errors.Wrap(err, "querying submitted topics")
	}

	topics := make([]string, 0, len(set))
	for topic := range set {
		topics = append(topics, topic)
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *reviewApi) submitFeedback(ctx echo.Context) error {
	var data review.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	student, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	fb, err := api.reviewSvc.SubmitFeedback(ctx.Request().Context(), student, data)
	if err != nil {
		if errors.Cause(err) == review.ErrTopicNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "submitting feedback")
	}
	return ctx.JSON(http.StatusCreated, fb)
}

func (api *reviewApi) editFeedback(ctx echo.Context) error {
	var data review.UpdateFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFeedback")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	student, err := getContextAccount(ctx, api.accountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	fb, err := api.reviewSvc.EditFeedback(ctx.Request().Context(), student.ID, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == review.ErrFeedbackNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "editing feedback")
	}
	return ctx.JSON(http.StatusOK, fb)
}

// Admin handlers

func (api *reviewApi) queryStudents(ctx echo.Context) error {
	filter := new(account.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	filter.Role = account.RoleStudent

	students, err := api.accountSvc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *reviewApi) retrieveStudent(ctx echo.Context) error {
	acct, err := api.getAccountByRole(ctx, account.RoleStudent)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *reviewApi) queryStudentFeedback(ctx echo.Context) error {
	student, err := api.getAccountByRole(ctx, account.RoleStudent)
	if err != nil {
		return err
	}

	fbs, err := api.reviewSvc.FeedbackForStudent(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "querying student feedback")
	}
	if fbs == nil {
		fbs = []review.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *reviewApi) queryTeacherStudents(ctx echo.Context) error {
	teacher, err := api.getAccountByRole(ctx, account.RoleTeacher)
	if err != nil {
		return err
	}

	students, err := api.accountSvc.Filter(ctx.Request().Context(), account.QueryFilter{
		Role:       account.RoleStudent,
		TeacherRef: teacher.ID,
	})
	if err != nil {
		return errors.Wrap(err, "querying teacher's students")
	}
	if students == nil {
		students = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *reviewApi) teacherMonthlyRatings(ctx echo.Context) error {
	teacher, err := api.getAccountByRole(ctx, account.RoleTeacher)
	if err != nil {
		return err
	}

	ratings, err := api.reviewSvc.MonthlyRatings(ctx.Request().Context(), teacher.ID)
	if err != nil {
		return errors.Wrap(err, "querying monthly ratings")
	}
	return ctx.JSON(http.StatusOK, ratings)
}

// allTeacherRatings fans out one rating query per teacher; each teacher stays
// paired with their own table no matter the completion order.
func (api *reviewApi) allTeacherRatings(ctx echo.Context) error {
	teachers, err := api.accountSvc.Filter(ctx.Request().Context(), account.QueryFilter{Role: account.RoleTeacher})
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}

	refs := make([]string, 0, len(teachers))
	for _, t := range teachers {
		refs = append(refs, t.ID)
	}
	results := api.reviewSvc.RatingsForTeachers(ctx.Request().Context(), refs...)

	resp := make([]TeacherRatingsResponse, 0, len(results))
	for i, res := range results {
		entry := TeacherRatingsResponse{
			TeacherRef: res.TeacherRef,
			Name:       teachers[i].Name,
			Surname:    teachers[i].Surname,
			Ratings:    res.Ratings,
		}
		if res.Err != nil {
			ctx.Logger().Errorf("%+v", errors.Wrap(res.Err, "querying ratings for "+res.TeacherRef))
			entry.Ratings = []review.MonthlyAverage{}
		}
		resp = append(resp, entry)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *reviewApi) addTeacher(ctx echo.Context) error {
	var data account.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.accountSvc); err != nil {
		return err
	}

	acct, err := api.accountSvc.AddTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding teacher")
	}
	return ctx.JSON(http.StatusCreated, acct)
}

func (api *reviewApi) destroyTeacher(ctx echo.Context) error {
	teacher, err := api.getAccountByRole(ctx, account.RoleTeacher)
	if err != nil {
		return err
	}

	res := api.reviewSvc.DeleteTeacherCascade(ctx.Request().Context(), teacher.ID)
	return ctx.JSON(http.StatusOK, newCascadeResponse(res))
}

func (api *reviewApi) whatsAppLink(ctx echo.Context) error {
	link, err := api.notifySvc.WhatsAppLink(ctx.QueryParam("phone"), ctx.QueryParam("text"))
	if err != nil {
		return core.NewValidationError(err)
	}
	return ctx.JSON(http.StatusOK, LinkResponse{Link: link})
}

func (api *reviewApi) mailtoLink(ctx echo.Context) error {
	link := api.notifySvc.MailtoLink(ctx.QueryParam("email"), ctx.QueryParam("subject"), ctx.QueryParam("body"))
	return ctx.JSON(http.StatusOK, LinkResponse{Link: link})
}

func (api *reviewApi) getAccountByRole(ctx echo.Context, role account.Role) (account.Account, error) {
	acct, err := api.accountSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Account{}, errHttpNotFound
		}
		return account.Account{}, errors.Wrap(err, "finding account by ID")
	}
	if acct.Role != role {
		return account.Account{}, errHttpNotFound
	}
	return acct, nil
}

type (
	CascadeStep struct {
		Name  string `json:"name"`
		Error string `json:"error,omitempty"`
	}

	CascadeResponse struct {
		Status string        `json:"status"`
		Steps  []CascadeStep `json:"steps"`
	}

	TeacherRatingsResponse struct {
		TeacherRef string                  `json:"teacher_ref"`
		Name       string                  `json:"name"`
		Surname    string                  `json:"surname"`
		Ratings    []review.MonthlyAverage `json:"ratings"`
	}

	LinkResponse struct {
		Link string `json:"link"`
	}
)

func newCascadeResponse(res review.Result) CascadeResponse {
	steps := make([]CascadeStep, 0, len(res.Steps))
	for _, step := range res.Steps {
		s := CascadeStep{Name: step.Name}
		if step.Err != nil {
			s.Error = step.Err.Error()
		}
		steps = append(steps, s)
	}
	return CascadeResponse{Status: res.Status().String(), Steps: steps}
}
