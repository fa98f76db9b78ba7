package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/observability"
	"github.com/noah-isme/skor-go-api/internal/repository"
)

// ErrNoWeightConfig indicates the course has no weight rows at all, so a final
// score is undefined. The prior mark, if any, stays untouched.
var ErrNoWeightConfig = errors.New("course has no weight configuration")

// ErrMissingWeightConfig indicates raw scores exist for an assessment type
// that has no weight row. Surfaced, never silently dropped: a gradebook column
// must always be backed by an active weight configuration.
var ErrMissingWeightConfig = errors.New("raw scores present for an unweighted assessment type")

// ErrTopicMarkNotFound indicates no mark has been computed yet.
var ErrTopicMarkNotFound = errors.New("topic mark not found")

// RecomputedEvent is published after every successful recomputation.
type RecomputedEvent struct {
	OfferingID uint      `json:"offering_id"`
	StudentID  uint      `json:"student_id"`
	FinalScore float64   `json:"final_score"`
	IsPassed   bool      `json:"is_passed"`
	ComputedAt time.Time `json:"computed_at"`
}

// AggregationService turns raw scores into one final mark per (offering,
// student): per-type reduction by the configured grading method, weighting,
// summing and the pass verdict.
type AggregationService interface {
	MarkRecomputer
	GetMark(ctx context.Context, offeringID, studentID uint) (dto.TopicMarkResponse, error)
	ListMarks(ctx context.Context, offeringID uint) (dto.TopicMarkListResponse, error)
}

type aggregationService struct {
	offerings   repository.OfferingRepository
	weights     repository.CourseWeightRepository
	gradebook   repository.GradebookRepository
	submissions repository.SubmissionRepository
	marks       repository.TopicMarkRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	nats        *nats.Conn
	natsSubject string
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAggregationService constructs the aggregation engine. cache and natsConn
// may be nil; both are best-effort side channels.
func NewAggregationService(offerings repository.OfferingRepository, weights repository.CourseWeightRepository, gradebook repository.GradebookRepository, submissions repository.SubmissionRepository, marks repository.TopicMarkRepository, cache *redis.Client, cacheTTL time.Duration, natsConn *nats.Conn, natsSubject string, logger zerolog.Logger) AggregationService {
	return &aggregationService{
		offerings:   offerings,
		weights:     weights,
		gradebook:   gradebook,
		submissions: submissions,
		marks:       marks,
		cache:       cache,
		cacheTTL:    cacheTTL,
		nats:        natsConn,
		natsSubject: natsSubject,
		tracer:      otel.Tracer("github.com/noah-isme/skor-go-api/internal/service/aggregation"),
		logger:      logger.With().Str("component", "aggregation_service").Logger(),
		now:         time.Now,
		locks:       make(map[string]*sync.Mutex),
	}
}

// rawScore is one contributing score of an assessment type, ordered by Index
// (column index or attempt number) with At breaking ties for LATEST.
type rawScore struct {
	Value float64
	Index int
	At    time.Time
}

// ComputeFinal recomputes and upserts the mark for one student. Concurrent
// calls for the same (offering, student) are serialized; different students
// and offerings never contend. The computation is a pure function over the
// persisted state, so repeated calls with unchanged inputs write identical
// marks.
func (s *aggregationService) ComputeFinal(ctx context.Context, offeringID, studentID uint) (dto.TopicMarkResponse, error) {
	ctx, span := s.tracer.Start(ctx, "aggregation.compute_final")
	span.SetAttributes(
		attribute.Int64("aggregation.offering_id", int64(offeringID)),
		attribute.Int64("aggregation.student_id", int64(studentID)),
	)
	defer span.End()

	start := s.now()
	unlock := s.lockStudent(offeringID, studentID)
	defer unlock()

	mark, err := s.computeLocked(ctx, offeringID, studentID)
	observability.AggregationDuration().Observe(s.now().Sub(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation_failed")
		observability.AggregationRuns().WithLabelValues("error").Inc()
		return dto.TopicMarkResponse{}, err
	}

	observability.AggregationRuns().WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.Float64("aggregation.final_score", mark.FinalScore),
		attribute.Bool("aggregation.is_passed", mark.IsPassed),
	)

	s.invalidateCache(ctx, offeringID)
	s.publishRecomputed(mark)

	return dto.NewTopicMarkResponse(mark), nil
}

func (s *aggregationService) computeLocked(ctx context.Context, offeringID, studentID uint) (models.TopicMark, error) {
	offering, err := s.offerings.GetByID(ctx, offeringID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TopicMark{}, ErrOfferingNotFound
		}
		return models.TopicMark{}, err
	}

	weights, err := s.weights.ListByCourse(ctx, offering.CourseID)
	if err != nil {
		return models.TopicMark{}, err
	}
	if len(weights) == 0 {
		return models.TopicMark{}, ErrNoWeightConfig
	}

	scoresByType, err := s.collectRawScores(ctx, offeringID, studentID)
	if err != nil {
		return models.TopicMark{}, err
	}

	weighted := make(map[uint]struct{}, len(weights))
	for _, weight := range weights {
		weighted[weight.AssessmentTypeID] = struct{}{}
	}
	for typeID := range scoresByType {
		if _, ok := weighted[typeID]; !ok {
			return models.TopicMark{}, fmt.Errorf("%w: assessment type %d", ErrMissingWeightConfig, typeID)
		}
	}

	var finalScore float64
	for _, weight := range weights {
		scores := scoresByType[weight.AssessmentTypeID]
		if len(scores) == 0 {
			// A type without graded work contributes nothing; its weight is
			// deliberately not redistributed.
			continue
		}
		finalScore += reduce(weight.Method, scores) * weight.Weight
	}

	mark := models.TopicMark{
		OfferingID:     offeringID,
		StudentID:      studentID,
		FinalScore:     finalScore,
		IsPassed:       finalScore >= offering.Course.MinPassingScore,
		LastComputedAt: s.now().UTC(),
	}

	if err := s.marks.Upsert(ctx, &mark); err != nil {
		return models.TopicMark{}, err
	}

	return mark, nil
}

// collectRawScores gathers contributing scores per assessment type from both
// production paths: graded entries under non-deleted gradebook columns and
// finalized submission totals. Ungraded entries are excluded; they are "not
// yet contributing", not zero.
func (s *aggregationService) collectRawScores(ctx context.Context, offeringID, studentID uint) (map[uint][]rawScore, error) {
	scoresByType := make(map[uint][]rawScore)

	entries, columns, err := s.gradebook.ListEntries(ctx, offeringID, studentID)
	if err != nil {
		return nil, err
	}

	columnByID := make(map[uint]models.GradebookColumn, len(columns))
	for _, column := range columns {
		columnByID[column.ID] = column
	}

	for _, entry := range entries {
		if entry.Score == nil {
			continue
		}
		column, ok := columnByID[entry.ColumnID]
		if !ok {
			continue
		}
		scoresByType[column.AssessmentTypeID] = append(scoresByType[column.AssessmentTypeID], rawScore{
			Value: *entry.Score,
			Index: column.Index,
			At:    entry.UpdatedAt,
		})
	}

	status := models.SubmissionStatusFinalized
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		OfferingID: &offeringID,
		StudentID:  &studentID,
		Status:     &status,
	})
	if err != nil {
		return nil, err
	}

	for _, submission := range submissions {
		if submission.TotalScore == nil {
			continue
		}
		at := submission.UpdatedAt
		if submission.SubmittedAt != nil {
			at = *submission.SubmittedAt
		}
		scoresByType[submission.AssessmentTypeID] = append(scoresByType[submission.AssessmentTypeID], rawScore{
			Value: *submission.TotalScore,
			Index: submission.AttemptIndex,
			At:    at,
		})
	}

	return scoresByType, nil
}

// reduce collapses a non-empty raw score set into one representative score.
func reduce(method models.GradingMethod, scores []rawScore) float64 {
	switch method {
	case models.GradingMethodHighest:
		best := scores[0].Value
		for _, score := range scores[1:] {
			if score.Value > best {
				best = score.Value
			}
		}
		return best
	case models.GradingMethodLatest:
		latest := scores[0]
		for _, score := range scores[1:] {
			if score.Index > latest.Index ||
				(score.Index == latest.Index && score.At.After(latest.At)) {
				latest = score
			}
		}
		return latest.Value
	default:
		var sum float64
		for _, score := range scores {
			sum += score.Value
		}
		return sum / float64(len(scores))
	}
}

func (s *aggregationService) GetMark(ctx context.Context, offeringID, studentID uint) (dto.TopicMarkResponse, error) {
	mark, err := s.marks.Get(ctx, offeringID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TopicMarkResponse{}, ErrTopicMarkNotFound
		}
		return dto.TopicMarkResponse{}, err
	}

	return dto.NewTopicMarkResponse(mark), nil
}

// ListMarks serves class-wide gradebook views through a read-through cache.
func (s *aggregationService) ListMarks(ctx context.Context, offeringID uint) (dto.TopicMarkListResponse, error) {
	cacheKey := s.cacheKey(offeringID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.TopicMarkListResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read marks cache")
		}
	}

	marks, err := s.marks.ListByOffering(ctx, offeringID)
	if err != nil {
		return dto.TopicMarkListResponse{}, err
	}

	responses := make([]dto.TopicMarkResponse, 0, len(marks))
	for _, mark := range marks {
		responses = append(responses, dto.NewTopicMarkResponse(mark))
	}

	response := dto.TopicMarkListResponse{OfferingID: offeringID, Marks: responses}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store marks cache")
			}
		}
	}

	return response, nil
}

func (s *aggregationService) cacheKey(offeringID uint) string {
	return fmt.Sprintf("marks:offering:%d", offeringID)
}

func (s *aggregationService) invalidateCache(ctx context.Context, offeringID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(offeringID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("offering_id", offeringID).Msg("failed to invalidate marks cache")
	}
}

func (s *aggregationService) publishRecomputed(mark models.TopicMark) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}

	event := RecomputedEvent{
		OfferingID: mark.OfferingID,
		StudentID:  mark.StudentID,
		FinalScore: mark.FinalScore,
		IsPassed:   mark.IsPassed,
		ComputedAt: mark.LastComputedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish recomputation event")
	}
}

// lockStudent returns the unlock func for the per-(offering, student) critical
// section around read-compute-upsert.
func (s *aggregationService) lockStudent(offeringID, studentID uint) func() {
	key := fmt.Sprintf("%d:%d", offeringID, studentID)

	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
