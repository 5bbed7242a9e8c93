package wire

// Field names a canonical field. Aliases lists the backend spellings accepted
// for it, most specific first.
type Field string

const (
	FieldID                 Field = "id"
	FieldShipmentID         Field = "shipmentId"
	FieldTrackingNumber     Field = "trackingNumber"
	FieldCounterpartID      Field = "counterpartId"
	FieldCounterpartName    Field = "counterpartName"
	FieldCounterpartCompany Field = "counterpartCompany"
	FieldLastMessage        Field = "lastMessage"
	FieldLastMessageAt      Field = "lastMessageAt"
	FieldSenderID           Field = "senderId"
	FieldReceiverID         Field = "receiverId"
	FieldSenderName         Field = "senderName"
	FieldSenderRole         Field = "senderRole"
	FieldBody               Field = "body"
	FieldCreatedAt          Field = "createdAt"
	FieldIsRead             Field = "isRead"
	FieldArchived           Field = "archived"
	FieldStatus             Field = "status"
	FieldShipperIDs         Field = "shipperIds"
	FieldCarrierIDs         Field = "carrierIds"
	FieldErrorMessage       Field = "errorMessage"
)

// Aliases is the single mapping from canonical fields to wire spellings.
// otherUserId, carrierId and participantId all mean "the counterpart".
var Aliases = map[Field][]string{
	FieldID: {"id", "_id", "conversationId", "conversation_id", "messageId", "message_id"},
	FieldShipmentID: {
		"shipmentId", "shipment_id", "shipmentid", "shipment.id", "shipment._id",
	},
	FieldTrackingNumber: {
		"trackingNumber", "tracking_number", "trackingnumber", "trackingCode", "tracking_code",
		"shipment.trackingNumber", "shipment.tracking_number",
	},
	FieldCounterpartID: {
		"otherUserId", "other_user_id", "otheruserid",
		"carrierId", "carrier_id", "carrierid",
		"participantId", "participant_id", "participantid",
		"shipperId", "shipper_id",
	},
	FieldCounterpartName: {
		"otherUserName", "other_user_name", "otherusername",
		"carrierName", "carrier_name", "carriername",
		"participantName", "participant_name", "participantname",
		"shipperName", "shipper_name",
	},
	FieldCounterpartCompany: {
		"otherUserCompany", "other_user_company", "carrierCompany", "carrier_company",
		"participantCompany", "participant_company", "companyName", "company_name",
	},
	FieldLastMessage: {
		"lastMessage", "last_message", "lastmessage", "message", "content", "text",
	},
	FieldLastMessageAt: {
		"lastMessageAt", "last_message_at", "lastmessageat", "lastMessageTime", "last_message_time",
		"createdAt", "created_at", "createdat", "updatedAt", "updated_at", "timestamp",
	},
	FieldSenderID: {
		"senderId", "sender_id", "senderid", "fromUserId", "from_user_id", "sender.id",
	},
	FieldReceiverID: {
		"receiverId", "receiver_id", "receiverid", "toUserId", "to_user_id", "receiver.id",
	},
	FieldSenderName: {
		"senderName", "sender_name", "sendername", "fromName", "from_name",
		"sender.name", "sender.fullName",
	},
	FieldSenderRole: {
		"senderRole", "sender_role", "senderrole", "senderType", "sender_type", "sendertype",
		"sender.role",
	},
	FieldBody: {"message", "content", "text", "body"},
	FieldCreatedAt: {
		"createdAt", "created_at", "createdat", "timestamp", "sentAt", "sent_at", "date",
	},
	FieldIsRead:   {"isRead", "is_read", "isread", "read"},
	FieldArchived: {"archived", "isArchived", "is_archived", "isarchived"},
	FieldStatus:   {"status", "shipmentStatus", "shipment_status", "state"},
	FieldShipperIDs: {
		"userId", "user_id", "userid", "shipperId", "shipper_id", "ownerId", "owner_id",
		"createdBy", "created_by", "customerId", "customer_id",
	},
	FieldCarrierIDs: {
		"carrierId", "carrier_id", "carrierid", "assignedCarrierId", "assigned_carrier_id",
		"acceptedCarrierId", "accepted_carrier_id", "nakliyeciId", "nakliyeci_id",
		"driverId", "driver_id", "tasiyiciId", "tasiyici_id",
	},
	FieldErrorMessage: {"message", "error", "msg"},
}
