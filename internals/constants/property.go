package constants

// Post types
const (
	PostTypeProperty    = "properties"
	PostTypePost        = "post"
	PostTypeAttachment  = "attachment"
	PostTypeRevision    = "revision"
	PostTypeBuilder     = "post_builders"
	PostTypeSubdivision = "post_communities"
)

// Post statuses
const (
	PostStatusPublish   = "publish"
	PostStatusDraft     = "draft"
	PostStatusTrash     = "trash"
	PostStatusAutoDraft = "auto-draft"
)

// Taxonomy holding the listing status vocabulary (expired, withdrawn, ...).
const TaxonomyListingStatus = "es_status"

// Meta keys
const (
	MetaThumbnailID        = "_thumbnail_id"
	MetaAttachedFile       = "_wp_attached_file"
	MetaAttachmentMetadata = "_wp_attachment_metadata"
	MetaBuilder            = "es_property_builder"
	MetaSubdivision        = "es_property_subdivisionname"
	MetaAlternateTitle     = "cf_legalname_alternate_title"
	MetaNotificationSent   = "_wts_notification_sent"
)

// Option names
const (
	OptionBlogName         = "blogname"
	OptionRecipients       = "wts_notification_recipients"
	OptionChangeWatermark  = "wts_change_watermark"
	TransientNotifications = "wts_post_notifications"
)

// NotAvailable is the sentinel for unmatched or missing values in digests.
const NotAvailable = "N/A"

// Nonce actions
const (
	NonceDraftBatch    = "wts_draft_props_nonce"
	NonceDeleteBatch   = "wts_delete_props_nonce"
	NonceDeleteOrphans = "wts_delete_orphans_action"
	NonceRecipients    = "wts_save_notification_recipients_action"
	NonceNotifyCheck   = "wts_notification_check_action"
	NonceNotifyRun     = "wts_notification_cron_action"
	NonceNotifyTest    = "wts_send_test_email_action"
)

var NonceActions = []string{
	NonceDraftBatch,
	NonceDeleteBatch,
	NonceDeleteOrphans,
	NonceRecipients,
	NonceNotifyCheck,
	NonceNotifyRun,
	NonceNotifyTest,
}
