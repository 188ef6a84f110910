// Package schema defines the value types of semantic models and of the
// unified model composed from them.
//
// A semantic model describes the tables of one data source:
//
//	name: orders
//	version: "1"
//	tables:
//	  orders.orders:
//	    dimensions:
//	      - name: id
//	        type: number
//	        primary_key: true
//	    measures:
//	      - name: total
//	        type: number
//	        aggregation: sum
//	    filters:
//	      paid:
//	        expression: orders.orders.status = 'paid'
//	metrics:
//	  revenue: sum(orders.orders.total)
//
// Tables, filters and metrics are YAML mappings whose order is preserved:
// the Go side keeps them as slices (Tables, Filters, Metrics) and the
// mapping key is carried by the element itself.
//
// A unified model embeds several semantic models and adds cross-model
// relationships and metrics:
//
//	name: sales
//	models:
//	  - source: orders
//	    model: {...}
//	relationships:
//	  - name: o2c
//	    from: orders.orders
//	    to: customers.customers
//	    on: orders.orders.customer_id = customers.customers.id
//	    type: inner
//	metrics:
//	  revenue_per_customer:
//	    expression: sum(orders.orders.total) / count(customers.customers.id)
//
// Values of this package are treated as immutable once built; use Clone
// to derive a modified copy.
package schema
