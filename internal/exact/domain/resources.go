package domain

// ERP resources addressed by the sync engine, as module/Resource.
const (
	ResourceAccounts               = "crm/Accounts"
	ResourceContacts               = "crm/Contacts"
	ResourceAddresses              = "crm/Addresses"
	ResourceAccountClassifications = "crm/AccountClassifications"
	ResourceQuotations             = "crm/Quotations"
	ResourceItems                  = "logistics/Items"
	ResourceGLAccounts             = "financial/GLAccounts"
	ResourcePriceLists             = "sales/PriceLists"
	ResourceSalesOrders            = "salesorder/SalesOrders"
	ResourceGoodsDeliveries        = "salesorder/GoodsDeliveries"
	ResourcePurchaseOrders         = "purchaseorder/PurchaseOrders"
)

// AddressTypeDelivery is the ERP address type for delivery addresses.
const AddressTypeDelivery = 4

const (
	InvoicingMethodPaper   = 1
	InvoicingMethodDigital = 2
)
