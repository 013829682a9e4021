package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the shop and learning funnel.
// A nil *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	// Cart
	CartItemsAdded   *prometheus.CounterVec
	CartItemsRemoved *prometheus.CounterVec
	CartLinesDropped *prometheus.CounterVec
	CartValue        prometheus.Histogram

	// Checkout funnel
	CheckoutStarted   prometheus.Counter
	CheckoutRejected  *prometheus.CounterVec
	CheckoutCompleted prometheus.Counter
	GatewayLatency    *prometheus.HistogramVec

	// Purchases
	PurchasesCreated *prometheus.CounterVec

	// Learning
	LessonValidations    *prometheus.CounterVec
	CursusValidated      prometheus.Counter
	ThemesValidated      prometheus.Counter
	CertificationsIssued *prometheus.CounterVec

	// Webhooks
	WebhookReceived *prometheus.CounterVec
	WebhookFailed   *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics on reg.
func NewBusinessMetrics(reg prometheus.Registerer, namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "savoir"
	}

	subsystem := "business"
	factory := promauto.With(reg)

	return &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartItemsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add to cart actions",
			},
			[]string{"kind"}, // kind: cursus, lesson
		),
		CartItemsRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_removed_total",
				Help:      "Total remove from cart actions",
			},
			[]string{"kind"},
		),
		CartLinesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_lines_dropped_total",
				Help:      "Cart lines removed during resolution because the item no longer exists",
			},
			[]string{"kind"}, // kind: cursus, lesson, unknown
		),
		CartValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_value_euros",
				Help:      "Cart total at checkout start",
				Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000},
			},
		),

		// =======================================================================
		// Checkout Funnel
		// =======================================================================
		CheckoutStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Checkout sessions opened at the payment gateway",
			},
		),
		CheckoutRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_rejected_total",
				Help:      "Checkouts that did not reach the payment page",
			},
			[]string{"reason"}, // reason: empty_cart, invalid_item, gateway
		),
		CheckoutCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_completed_total",
				Help:      "Paid checkouts turned into purchases",
			},
		),
		GatewayLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gateway_request_duration_seconds",
				Help:      "Payment gateway call latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"}, // operation: create_session, get_session
		),

		// =======================================================================
		// Purchases
		// =======================================================================
		PurchasesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "purchases_created_total",
				Help:      "Purchase rows created, including lessons granted by a cursus",
			},
			[]string{"kind"},
		),

		// =======================================================================
		// Learning
		// =======================================================================
		LessonValidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "lesson_validations_total",
				Help:      "Lesson validation requests by outcome",
			},
			[]string{"outcome"}, // outcome: validated, already_validated, not_purchased, failed
		),
		CursusValidated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cursus_validated_total",
				Help:      "Cursus marked validated by the cascade",
			},
		),
		ThemesValidated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "themes_validated_total",
				Help:      "Themes marked valid",
			},
		),
		CertificationsIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "certifications_issued_total",
				Help:      "Certifications created",
			},
			[]string{"trigger"}, // trigger: cascade, admin
		),

		// =======================================================================
		// Webhooks
		// =======================================================================
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Verified webhook events by type",
			},
			[]string{"event_type"},
		),
		WebhookFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Rejected webhook requests",
			},
			[]string{"reason"}, // reason: read_body, signature
		),
	}
}

// =============================================================================
// Nil-safe recorders
// =============================================================================

func (m *BusinessMetrics) RecordCartAdd(kind string) {
	if m != nil {
		m.CartItemsAdded.WithLabelValues(kind).Inc()
	}
}

func (m *BusinessMetrics) RecordCartRemove(kind string) {
	if m != nil {
		m.CartItemsRemoved.WithLabelValues(kind).Inc()
	}
}

func (m *BusinessMetrics) RecordCartLineDropped(kind string) {
	if m != nil {
		m.CartLinesDropped.WithLabelValues(kind).Inc()
	}
}

func (m *BusinessMetrics) RecordCheckoutStarted(total float64) {
	if m != nil {
		m.CheckoutStarted.Inc()
		m.CartValue.Observe(total)
	}
}

func (m *BusinessMetrics) RecordCheckoutRejected(reason string) {
	if m != nil {
		m.CheckoutRejected.WithLabelValues(reason).Inc()
	}
}

func (m *BusinessMetrics) RecordCheckoutCompleted() {
	if m != nil {
		m.CheckoutCompleted.Inc()
	}
}

func (m *BusinessMetrics) ObserveGateway(operation string, seconds float64) {
	if m != nil {
		m.GatewayLatency.WithLabelValues(operation).Observe(seconds)
	}
}

func (m *BusinessMetrics) RecordPurchases(kind string, n int) {
	if m != nil && n > 0 {
		m.PurchasesCreated.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *BusinessMetrics) RecordLessonValidation(outcome string) {
	if m != nil {
		m.LessonValidations.WithLabelValues(outcome).Inc()
	}
}

func (m *BusinessMetrics) RecordCursusValidated() {
	if m != nil {
		m.CursusValidated.Inc()
	}
}

func (m *BusinessMetrics) RecordThemeValidated() {
	if m != nil {
		m.ThemesValidated.Inc()
	}
}

func (m *BusinessMetrics) RecordCertificationIssued(trigger string) {
	if m != nil {
		m.CertificationsIssued.WithLabelValues(trigger).Inc()
	}
}

func (m *BusinessMetrics) RecordWebhook(eventType string) {
	if m != nil {
		m.WebhookReceived.WithLabelValues(eventType).Inc()
	}
}

func (m *BusinessMetrics) RecordWebhookFailure(reason string) {
	if m != nil {
		m.WebhookFailed.WithLabelValues(reason).Inc()
	}
}
