/*
Package ddb provides the DynamoDB implementation of datastore.ArchiveStore and
the predicate builder that turns replay requests into DynamoDB expressions.

Scan filters:
Up to three optional lower bounds are composed conjunctively. Attribute names
are always aliased:

	#sequenceNumber >= :sequenceNumber AND #approximateArrivalTimestamp >= :approximateArrivalTimestamp

Query shapes:
A partition query always carries "#partitionKey = :partitionKey" and at most
one sort-key condition, chosen by SelectQueryKind:

	start == end     point get (sort key only under RecoveryModeAll)
	start only       #sequenceNumber >= :sequenceStart
	end only         #sequenceNumber <= :sequenceEnd
	start and end    #sequenceNumber BETWEEN :sequenceStart AND :sequenceEnd
	neither          partition only

Under RecoveryModeLatest the table has no sort key; sort-key shapes degrade to
a partition lookup and the plan carries a warning.
*/
package ddb
